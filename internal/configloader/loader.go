// SPDX-License-Identifier: AGPL-3.0-or-later

package configloader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowd-org/sigdesk/internal/paths"
	"github.com/flowd-org/sigdesk/internal/types"
	"github.com/flowd-org/sigdesk/internal/verify"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvConfigFile    = "SIGDESK_CONFIG"
	EnvVerifyBackend = "SIGDESK_VERIFY_BACKEND"
	EnvGPGTool       = "SIGDESK_GPG"
	EnvKeyring       = "SIGDESK_KEYRING"
	EnvBind          = "SIGDESK_BIND"
)

// LoadFile decodes the config file at path.
func LoadFile(path string) (*types.Config, error) {
	if path == "" {
		return nil, errors.New("missing config file path")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg types.Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// Keyrings are resolved relative to the file that names them.
	if kr := strings.TrimSpace(cfg.Verify.Keyring); kr != "" && !filepath.IsAbs(kr) {
		cfg.Verify.Keyring = filepath.Join(filepath.Dir(path), kr)
	}
	return &cfg, nil
}

// Load resolves the config file and applies environment overrides. The path
// comes from explicit, then SIGDESK_CONFIG, then the platform default. Only the
// platform default may be absent. The returned path is empty when no file was read.
func Load(explicit string) (*types.Config, string, error) {
	path := strings.TrimSpace(explicit)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigFile))
	}
	required := path != ""
	if path == "" {
		path = paths.ConfigFile()
	}

	cfg := &types.Config{}
	loaded, err := LoadFile(path)
	switch {
	case err == nil:
		cfg = loaded
	case !required && errors.Is(err, fs.ErrNotExist):
		path = ""
	default:
		return nil, "", err
	}

	applyEnv(cfg)
	if err := validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func applyEnv(cfg *types.Config) {
	if v := strings.TrimSpace(os.Getenv(EnvVerifyBackend)); v != "" {
		cfg.Verify.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGPGTool)); v != "" {
		cfg.Verify.Tool = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvKeyring)); v != "" {
		cfg.Verify.Keyring = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBind)); v != "" {
		cfg.Serve.Bind = v
	}
}

func validate(cfg *types.Config) error {
	cfg.Verify.Backend = strings.ToLower(strings.TrimSpace(cfg.Verify.Backend))
	switch cfg.Verify.Backend {
	case "", verify.BackendGPG, verify.BackendOpenPGP:
	default:
		return fmt.Errorf("invalid verify.backend: %q", cfg.Verify.Backend)
	}
	cfg.Serve.Log = strings.ToLower(strings.TrimSpace(cfg.Serve.Log))
	switch cfg.Serve.Log {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid serve.log: %q", cfg.Serve.Log)
	}
	return nil
}
