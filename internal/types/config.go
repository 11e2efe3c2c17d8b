// SPDX-License-Identifier: AGPL-3.0-or-later
package types

// Config is the on-disk sigdesk configuration.
type Config struct {
	Verify VerifyConfig `yaml:"verify,omitempty"`
	Serve  ServeConfig  `yaml:"serve,omitempty"`
}

// VerifyConfig selects the signature verification backend.
type VerifyConfig struct {
	Backend string `yaml:"backend,omitempty"`
	Tool    string `yaml:"tool,omitempty"`
	Keyring string `yaml:"keyring,omitempty"`
}

// ServeConfig carries defaults for the bridge server.
type ServeConfig struct {
	Bind    string `yaml:"bind,omitempty"`
	Log     string `yaml:"log,omitempty"`
	Dev     bool   `yaml:"dev,omitempty"`
	Metrics *bool  `yaml:"metrics,omitempty"`
}
