// SPDX-License-Identifier: AGPL-3.0-or-later
package bridge

import (
	"context"
	"errors"

	"github.com/flowd-org/sigdesk/internal/checksum"
	"github.com/flowd-org/sigdesk/internal/greet"
	"github.com/flowd-org/sigdesk/internal/verify"
)

// Command names exposed to the front end.
const (
	CommandGreet              = "greet"
	CommandVerifyPgpSignature = "verifyPgpSignature"
	CommandVerifyChecksum     = "verifyChecksum"
)

// Services are the backends behind the default commands.
type Services struct {
	Verifier verify.Verifier
}

// GreetArgs carries the greet command arguments.
type GreetArgs struct {
	Name string `json:"name"`
}

// VerifyArgs carries the verifyPgpSignature command arguments.
type VerifyArgs struct {
	SignaturePath string `json:"signaturePath"`
	FilePath      string `json:"filePath"`
}

// Validate requires both paths.
func (a VerifyArgs) Validate() error {
	switch {
	case a.SignaturePath == "":
		return errors.New("signaturePath is required")
	case a.FilePath == "":
		return errors.New("filePath is required")
	}
	return nil
}

// NewDefault returns a registry holding greet, verifyPgpSignature and
// verifyChecksum. A nil verifier falls back to gpg on the search path.
func NewDefault(svc Services) *Registry {
	verifier := svc.Verifier
	if verifier == nil {
		verifier = verify.NewGPGVerifier("")
	}
	r := NewRegistry()
	mustRegister(r, CommandGreet, Typed(func(ctx context.Context, args GreetArgs) (string, error) {
		return greet.Greet(args.Name), nil
	}))
	mustRegister(r, CommandVerifyPgpSignature, Typed(func(ctx context.Context, args VerifyArgs) (string, error) {
		return VerifySignature(ctx, verifier, args)
	}))
	mustRegister(r, CommandVerifyChecksum, Typed(func(ctx context.Context, args checksum.Request) (checksum.Result, error) {
		return checksum.Verify(ctx, args)
	}))
	return r
}

// VerifySignature runs verifier and folds its outcome into the Ok/Err shape of
// a command result: the success message, or a *Rejection carrying the failure
// text or the launch error.
func VerifySignature(ctx context.Context, verifier verify.Verifier, args VerifyArgs) (string, error) {
	res, err := verifier.Verify(ctx, verify.Request{
		SignaturePath: args.SignaturePath,
		FilePath:      args.FilePath,
	})
	if err != nil {
		var invErr *verify.InvocationError
		if errors.As(err, &invErr) {
			return "", Reject(invErr.Error())
		}
		return "", err
	}
	if !res.Verified {
		return "", Reject(res.Message)
	}
	return res.Message, nil
}

func mustRegister(r *Registry, name string, h Handler) {
	if err := r.Register(name, h); err != nil {
		panic(err)
	}
}
