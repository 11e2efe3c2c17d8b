// SPDX-License-Identifier: AGPL-3.0-or-later

// Package verify checks detached signatures over local files.
package verify

import (
	"context"
	"fmt"
)

// Request names the detached signature and the file it covers. Paths are
// handed to the backend untouched.
type Request struct {
	SignaturePath string `json:"signaturePath"`
	FilePath      string `json:"filePath"`
}

// Result captures the outcome of a verification attempt. Message carries the
// human-readable text reported by the backend for both outcomes.
type Result struct {
	Verified bool
	Message  string
}

// Verifier checks a detached signature.
type Verifier interface {
	Verify(ctx context.Context, req Request) (Result, error)
}

// InvocationError reports that the verification backend could not be started.
type InvocationError struct {
	Tool string
	Err  error
}

func (e *InvocationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: could not be started", e.Tool)
	}
	return e.Err.Error()
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
