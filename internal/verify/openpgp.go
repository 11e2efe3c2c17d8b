// SPDX-License-Identifier: AGPL-3.0-or-later
package verify

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const armorPrefix = "-----BEGIN"

// OpenPGPVerifier checks detached signatures in-process against a public
// keyring file, for hosts without a gpg binary.
type OpenPGPVerifier struct {
	Keyring string
}

// NewOpenPGPVerifier returns a verifier backed by the keyring at path.
func NewOpenPGPVerifier(path string) *OpenPGPVerifier {
	return &OpenPGPVerifier{Keyring: path}
}

// Verify checks the signature at req.SignaturePath over req.FilePath. An
// unreadable keyring surfaces as *InvocationError; unreadable inputs and bad
// signatures are reported as Verified=false.
func (v *OpenPGPVerifier) Verify(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	keyring, err := readKeyring(v.Keyring)
	if err != nil {
		return Result{}, &InvocationError{Tool: "openpgp", Err: err}
	}

	sig, err := os.Open(req.SignaturePath)
	if err != nil {
		return Result{Verified: false, Message: fmt.Sprintf("can't open signature: %v", err)}, nil
	}
	defer sig.Close()
	signed, err := os.Open(req.FilePath)
	if err != nil {
		return Result{Verified: false, Message: fmt.Sprintf("can't open signed data: %v", err)}, nil
	}
	defer signed.Close()

	sigReader := bufio.NewReader(sig)
	check := openpgp.CheckDetachedSignature
	if isArmored(sigReader) {
		check = openpgp.CheckArmoredDetachedSignature
	}
	signer, err := check(keyring, signed, sigReader, nil)
	if err != nil {
		return Result{Verified: false, Message: fmt.Sprintf("BAD signature: %v", err)}, nil
	}
	return Result{Verified: true, Message: describeSigner(signer)}, nil
}

func readKeyring(path string) (openpgp.EntityList, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("keyring path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	var keyring openpgp.EntityList
	if isArmored(r) {
		keyring, err = openpgp.ReadArmoredKeyRing(r)
	} else {
		keyring, err = openpgp.ReadKeyRing(r)
	}
	if err != nil {
		return nil, fmt.Errorf("read keyring %s: %w", path, err)
	}
	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring %s holds no keys", path)
	}
	return keyring, nil
}

func isArmored(r *bufio.Reader) bool {
	head, _ := r.Peek(64)
	return bytes.HasPrefix(bytes.TrimLeft(head, " \t\r\n"), []byte(armorPrefix))
}

func describeSigner(signer *openpgp.Entity) string {
	if signer == nil || signer.PrimaryKey == nil {
		return "Good signature\n"
	}
	names := make([]string, 0, len(signer.Identities))
	for name := range signer.Identities {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "Good signature from %q\n", name)
	}
	if len(names) == 0 {
		b.WriteString("Good signature\n")
	}
	fmt.Fprintf(&b, "Primary key fingerprint: %X\n", signer.PrimaryKey.Fingerprint)
	return b.String()
}
