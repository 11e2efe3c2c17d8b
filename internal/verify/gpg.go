// SPDX-License-Identifier: AGPL-3.0-or-later
package verify

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/cli/safeexec"
)

// DefaultTool is the signature-checking program used when none is configured.
const DefaultTool = "gpg"

// ExecCommander spawns the underlying verification command. Extracted for tests.
type ExecCommander func(ctx context.Context, name string, args ...string) *exec.Cmd

// GPGVerifier shells out to `gpg --verify <signature> <file>`.
type GPGVerifier struct {
	Tool     string
	Command  ExecCommander
	LookPath func(file string) (string, error)
}

// NewGPGVerifier returns a verifier that runs tool, or gpg when tool is empty.
func NewGPGVerifier(tool string) *GPGVerifier {
	return &GPGVerifier{
		Tool:     tool,
		Command:  exec.CommandContext,
		LookPath: safeexec.LookPath,
	}
}

// Verify runs the tool once and waits for it to exit. Exit status zero yields
// Verified=true with stderr as the message, or stdout when stderr is empty;
// gpg writes its verdict to stderr. A non-zero exit yields Verified=false with
// stderr verbatim. A tool that cannot be started surfaces as *InvocationError.
func (v *GPGVerifier) Verify(ctx context.Context, req Request) (Result, error) {
	tool := v.Tool
	if tool == "" {
		tool = DefaultTool
	}
	path, err := v.resolve(tool)
	if err != nil {
		return Result{}, &InvocationError{Tool: tool, Err: err}
	}
	command := v.Command
	if command == nil {
		command = exec.CommandContext
	}
	var stdout, stderr bytes.Buffer
	cmd := command(ctx, path, "--verify", req.SignaturePath, req.FilePath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{Verified: false, Message: decodeLossy(stderr.Bytes())}, nil
		}
		return Result{}, &InvocationError{Tool: tool, Err: err}
	}
	errText := decodeLossy(stderr.Bytes())
	if errText != "" {
		return Result{Verified: true, Message: errText}, nil
	}
	return Result{Verified: true, Message: decodeLossy(stdout.Bytes())}, nil
}

func (v *GPGVerifier) resolve(tool string) (string, error) {
	if strings.ContainsAny(tool, `/\`) {
		return tool, nil
	}
	lookPath := v.LookPath
	if lookPath == nil {
		lookPath = safeexec.LookPath
	}
	return lookPath(tool)
}
