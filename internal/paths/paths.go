// SPDX-License-Identifier: AGPL-3.0-or-later

// Package paths centralises sigdesk config-directory resolution.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
)

const (
	appDirName        = "sigdesk"
	configFileName    = "config.yaml"
	envConfigDir      = "SIGDESK_CONFIG_DIR"
	envXDGConfigHome  = "XDG_CONFIG_HOME"
	envAppData        = "APPDATA"
	windowsVendorName = "Sigdesk"
)

var override atomic.Pointer[string]

// SetConfigDirOverride pins the config directory to an explicit location.
// Passing an empty string clears the override.
func SetConfigDirOverride(dir string) {
	if dir == "" {
		override.Store(nil)
		return
	}
	clean := filepath.Clean(dir)
	override.Store(&clean)
}

// ConfigDir returns the directory sigdesk reads its config from.
// Order of precedence:
//  1. Explicit override provided via SetConfigDirOverride.
//  2. SIGDESK_CONFIG_DIR environment variable.
//  3. Platform defaults:
//     * POSIX: $XDG_CONFIG_HOME/sigdesk, or ~/.config/sigdesk
//     * Windows: %APPDATA%\Sigdesk
//  4. Fallback: current working directory ./sigdesk
func ConfigDir() string {
	if ptr := override.Load(); ptr != nil && *ptr != "" {
		return *ptr
	}

	if dir := os.Getenv(envConfigDir); dir != "" {
		return filepath.Clean(dir)
	}

	if runtime.GOOS == "windows" {
		if base := os.Getenv(envAppData); base != "" {
			return filepath.Join(base, windowsVendorName)
		}
	}

	if xdg := os.Getenv(envXDGConfigHome); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", appDirName)
	}

	if cwd, err := os.Getwd(); err == nil && cwd != "" {
		return filepath.Join(cwd, appDirName)
	}

	return filepath.Join(os.TempDir(), appDirName)
}

// ConfigFile returns the default config file location.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), configFileName)
}
