// SPDX-License-Identifier: AGPL-3.0-or-later
package verify

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

const signedPayload = "release artifact v1.2.3\n"

var (
	signerOnce sync.Once
	signer     *openpgp.Entity
	signerErr  error
)

func testSigner(t *testing.T) *openpgp.Entity {
	t.Helper()
	signerOnce.Do(func() {
		signer, signerErr = openpgp.NewEntity("Sigdesk Test", "fixture", "test@sigdesk.invalid", nil)
	})
	if signerErr != nil {
		t.Fatalf("generate key: %v", signerErr)
	}
	return signer
}

type pgpFixture struct {
	Dir           string
	Keyring       string
	BinaryKeyring string
	File          string
	ArmoredSig    string
	BinarySig     string
}

func newPGPFixture(t *testing.T) pgpFixture {
	t.Helper()
	entity := testSigner(t)
	dir := t.TempDir()
	fx := pgpFixture{
		Dir:           dir,
		Keyring:       filepath.Join(dir, "pubring.asc"),
		BinaryKeyring: filepath.Join(dir, "pubring.gpg"),
		File:          filepath.Join(dir, "artifact.txt"),
		ArmoredSig:    filepath.Join(dir, "artifact.txt.asc"),
		BinarySig:     filepath.Join(dir, "artifact.txt.sig"),
	}

	var armored bytes.Buffer
	w, err := armor.Encode(&armored, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("armor encode: %v", err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("serialize public key: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close armor: %v", err)
	}
	writeFile(t, fx.Keyring, armored.Bytes())

	var binary bytes.Buffer
	if err := entity.Serialize(&binary); err != nil {
		t.Fatalf("serialize public key: %v", err)
	}
	writeFile(t, fx.BinaryKeyring, binary.Bytes())

	writeFile(t, fx.File, []byte(signedPayload))

	var armoredSig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&armoredSig, entity, strings.NewReader(signedPayload), nil); err != nil {
		t.Fatalf("armored detach sign: %v", err)
	}
	writeFile(t, fx.ArmoredSig, armoredSig.Bytes())

	var binarySig bytes.Buffer
	if err := openpgp.DetachSign(&binarySig, entity, strings.NewReader(signedPayload), nil); err != nil {
		t.Fatalf("detach sign: %v", err)
	}
	writeFile(t, fx.BinarySig, binarySig.Bytes())
	return fx
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// writeTool drops an executable shell script standing in for the external tool.
func writeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-gpg")
	script := "#!/bin/sh\n" + strings.TrimSpace(body) + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write tool: %v", err)
	}
	return path
}
