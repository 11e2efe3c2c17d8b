// SPDX-License-Identifier: AGPL-3.0-or-later
package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

// isolate keeps user config and SIGDESK_* variables out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("SIGDESK_CONFIG_DIR", t.TempDir())
	for _, key := range []string{"SIGDESK_CONFIG", "SIGDESK_VERIFY_BACKEND", "SIGDESK_GPG", "SIGDESK_KEYRING", "SIGDESK_BIND"} {
		t.Setenv(key, "")
	}
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func fakeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-gpg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write tool: %v", err)
	}
	return path
}

func TestGreetCommand(t *testing.T) {
	isolate(t)
	out, _, err := run(t, "greet", "Ada")
	if err != nil {
		t.Fatalf("greet: %v", err)
	}
	if out != "Hello, Ada! You've been greeted from Rust!\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestVerifyCommandSuccess(t *testing.T) {
	isolate(t)
	tool := fakeTool(t, `echo "gpg: Good signature" >&2`)
	out, _, err := run(t, "verify", "--tool", tool, "a.sig", "a")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if out != "gpg: Good signature\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestVerifyCommandFailure(t *testing.T) {
	isolate(t)
	tool := fakeTool(t, `printf 'gpg: BAD signature' >&2; exit 1`)
	out, errOut, err := run(t, "verify", "--tool", tool, "a.sig", "a")
	if !errors.Is(err, errVerificationFailed) {
		t.Fatalf("expected verification failure, got %v", err)
	}
	if out != "" || errOut != "gpg: BAD signature\n" {
		t.Fatalf("unexpected streams stdout=%q stderr=%q", out, errOut)
	}
}

func TestVerifyCommandMissingTool(t *testing.T) {
	isolate(t)
	_, _, err := run(t, "verify", "--tool", "sigdesk-no-such-tool", "a.sig", "a")
	if err == nil || errors.Is(err, errVerificationFailed) {
		t.Fatalf("expected launch error, got %v", err)
	}
	if !strings.Contains(err.Error(), "sigdesk-no-such-tool") {
		t.Fatalf("expected tool name in error, got %v", err)
	}
}

func TestVerifyCommandUsesConfigFile(t *testing.T) {
	isolate(t)
	tool := fakeTool(t, `echo "from config tool"`)
	other := fakeTool(t, `echo "from flag tool"`)
	cfgPath := filepath.Join(t.TempDir(), "sigdesk.yaml")
	if err := os.WriteFile(cfgPath, []byte("verify:\n  tool: "+tool+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, _, err := run(t, "--config", cfgPath, "verify", "a.sig", "a")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if out != "from config tool\n" {
		t.Fatalf("expected config tool to run, got %q", out)
	}

	out, _, err = run(t, "--config", cfgPath, "verify", "--tool", other, "a.sig", "a")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if out != "from flag tool\n" {
		t.Fatalf("expected flag to win over config, got %q", out)
	}
}

func TestVerifyCommandRejectsBadBackend(t *testing.T) {
	isolate(t)
	if _, _, err := run(t, "verify", "--backend", "openpgp", "a.sig", "a"); err == nil {
		t.Fatal("expected error for openpgp backend without keyring")
	}
}

func TestChecksumCommand(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "hello.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, _, err := run(t, "checksum", path, "--expected", "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824")
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if out != "Checksum MATCHES (SHA-256)\n" {
		t.Fatalf("unexpected output %q", out)
	}
	out, _, err = run(t, "checksum", path, "--expected", "00", "--algorithm", "sha512")
	if !errors.Is(err, errChecksumMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if !strings.HasPrefix(out, "Checksum MISMATCH: Expected 00 vs Calculated ") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCommandsCommand(t *testing.T) {
	isolate(t)
	out, _, err := run(t, "commands")
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	if out != "greet\nverifyChecksum\nverifyPgpSignature\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestApplyConfigDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bind := fs.String("bind", "127.0.0.1:8080", "")
	logMode := fs.String("log", "text", "")
	metrics := fs.Bool("metrics", true, "")
	if err := fs.Parse([]string{"--log", "json"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	err := applyConfigDefaults(fs, map[string]string{
		"bind":    "127.0.0.1:9000",
		"log":     "text",
		"metrics": "false",
		"unknown": "ignored",
	})
	if err != nil {
		t.Fatalf("applyConfigDefaults: %v", err)
	}
	if *bind != "127.0.0.1:9000" || *logMode != "json" || *metrics {
		t.Fatalf("unexpected values bind=%q log=%q metrics=%v", *bind, *logMode, *metrics)
	}

	if err := applyConfigDefaults(fs, map[string]string{"metrics": "sometimes"}); err == nil {
		t.Fatal("expected error for invalid bool")
	}
}
