// SPDX-License-Identifier: AGPL-3.0-or-later

// Package checksum compares a file digest against an expected hex value.
package checksum

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// Supported algorithm names, in their display form.
const (
	SHA256 = "SHA-256"
	SHA512 = "SHA-512"
)

// Request describes a checksum comparison.
type Request struct {
	FilePath  string `json:"filePath"`
	Expected  string `json:"expected"`
	Algorithm string `json:"algorithm"`
}

// Validate reports missing required fields.
func (r Request) Validate() error {
	if r.FilePath == "" {
		return errors.New("filePath is required")
	}
	return nil
}

// Result is the outcome of a comparison. Summary is the line shown to users.
type Result struct {
	Match      bool   `json:"match"`
	Algorithm  string `json:"algorithm"`
	Expected   string `json:"expected"`
	Calculated string `json:"calculated"`
	Summary    string `json:"summary"`
}

// NormalizeAlgorithm maps user spellings such as "sha256" or "Sha-512" to the
// display names. An empty name selects SHA-256.
func NormalizeAlgorithm(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "", "_", "").Replace(key)
	switch key {
	case "", "sha256":
		return SHA256, nil
	case "sha512":
		return SHA512, nil
	default:
		return "", fmt.Errorf("unsupported checksum algorithm %q", name)
	}
}

func newHash(algorithm string) hash.Hash {
	if algorithm == SHA512 {
		return sha512.New()
	}
	return sha256.New()
}

// Verify hashes req.FilePath and compares it with req.Expected.
func Verify(ctx context.Context, req Request) (Result, error) {
	algorithm, err := NormalizeAlgorithm(req.Algorithm)
	if err != nil {
		return Result{}, err
	}
	calculated, err := Digest(ctx, req.FilePath, algorithm)
	if err != nil {
		return Result{}, err
	}
	expected := strings.ToLower(strings.TrimSpace(req.Expected))
	res := Result{
		Match:      expected == calculated,
		Algorithm:  algorithm,
		Expected:   expected,
		Calculated: calculated,
	}
	if res.Match {
		res.Summary = fmt.Sprintf("Checksum MATCHES (%s)", algorithm)
	} else {
		res.Summary = fmt.Sprintf("Checksum MISMATCH: Expected %s vs Calculated %s", expected, calculated)
	}
	return res, nil
}

// Digest returns the lower-case hex digest of the file at path.
func Digest(ctx context.Context, path, algorithm string) (string, error) {
	algorithm, err := NormalizeAlgorithm(algorithm)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	h := newHash(algorithm)
	if _, err := io.Copy(h, &ctxReader{ctx: ctx, r: f}); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ctxReader stops a long hash when the caller goes away.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
