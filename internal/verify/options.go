// SPDX-License-Identifier: AGPL-3.0-or-later
package verify

import (
	"fmt"
	"strings"
)

// Backend names accepted by New.
const (
	BackendGPG     = "gpg"
	BackendOpenPGP = "openpgp"
)

// Options selects and configures a verification backend.
type Options struct {
	Backend string
	Tool    string
	Keyring string
}

// New builds the verifier described by opts. An empty backend selects gpg.
func New(opts Options) (Verifier, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendGPG:
		return NewGPGVerifier(strings.TrimSpace(opts.Tool)), nil
	case BackendOpenPGP:
		if strings.TrimSpace(opts.Keyring) == "" {
			return nil, fmt.Errorf("backend %q requires a keyring", BackendOpenPGP)
		}
		return NewOpenPGPVerifier(opts.Keyring), nil
	default:
		return nil, fmt.Errorf("unknown verification backend %q", opts.Backend)
	}
}
