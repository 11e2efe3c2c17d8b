// SPDX-License-Identifier: AGPL-3.0-or-later
package cmd

import (
	"fmt"
	"strconv"

	"github.com/flowd-org/sigdesk/internal/configloader"
	"github.com/flowd-org/sigdesk/internal/types"
	"github.com/flowd-org/sigdesk/internal/verify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func loadConfig(cmd *cobra.Command) (*types.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, _, err := configloader.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyConfigDefaults fills flags the user did not set from config values,
// keeping flag > env > config > default precedence. Empty values are skipped.
func applyConfigDefaults(flags *pflag.FlagSet, values map[string]string) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}
		v, ok := values[f.Name]
		if !ok || v == "" {
			return
		}
		if setErr := f.Value.Set(v); setErr != nil {
			err = fmt.Errorf("config value for --%s: %w", f.Name, setErr)
		}
	})
	return err
}

func addVerifyFlags(cmd *cobra.Command, opts *verify.Options) {
	cmd.Flags().StringVar(&opts.Backend, "backend", verify.BackendGPG, "Verification backend (gpg|openpgp)")
	cmd.Flags().StringVar(&opts.Tool, "tool", verify.DefaultTool, "Signature tool invoked by the gpg backend")
	cmd.Flags().StringVar(&opts.Keyring, "keyring", "", "Public keyring used by the openpgp backend")
}

func verifyDefaults(cfg *types.Config) map[string]string {
	return map[string]string{
		"backend": cfg.Verify.Backend,
		"tool":    cfg.Verify.Tool,
		"keyring": cfg.Verify.Keyring,
	}
}

func serveDefaults(cfg *types.Config) map[string]string {
	values := map[string]string{
		"bind": cfg.Serve.Bind,
		"log":  cfg.Serve.Log,
	}
	if cfg.Serve.Dev {
		values["dev"] = "true"
	}
	if cfg.Serve.Metrics != nil {
		values["metrics"] = strconv.FormatBool(*cfg.Serve.Metrics)
	}
	return values
}
