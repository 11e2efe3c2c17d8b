// SPDX-License-Identifier: AGPL-3.0-or-later
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowd-org/sigdesk/internal/bridge"
	"github.com/flowd-org/sigdesk/internal/server"
	"github.com/flowd-org/sigdesk/internal/verify"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command that runs the invocation bridge over HTTP.
func NewServeCmd() *cobra.Command {
	var (
		bindAddr       string
		logMode        string
		devMode        bool
		metricsEnabled bool
		opts           verify.Options
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve bridge commands to the desktop front end over local HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defaults := serveDefaults(fileCfg)
			for k, v := range verifyDefaults(fileCfg) {
				defaults[k] = v
			}
			if err := applyConfigDefaults(cmd.Flags(), defaults); err != nil {
				return err
			}
			verifier, err := verify.New(opts)
			if err != nil {
				return err
			}

			version := os.Getenv("SIGDESK_VERSION")
			cfg := server.Config{
				Bind:              bindAddr,
				Dev:               devMode,
				Log:               logMode,
				Version:           version,
				StdOut:            cmd.OutOrStdout(),
				StdErr:            cmd.ErrOrStderr(),
				MetricsEnabled:    metricsEnabled,
				MetricsConfigured: true,
				Verifier:          verifier,
				Bridge:            bridge.NewDefault(bridge.Services{Verifier: verifier}),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := server.Run(ctx, cfg); err != nil {
				if ctx.Err() != nil {
					// Shutdown initiated; surface as exit 0 after graceful stop.
					return nil
				}
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bindAddr, "bind", "127.0.0.1:8080", "Address for the bridge server to listen on")
	cmd.Flags().StringVar(&logMode, "log", "text", "Log output format (text|json)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "Enable development defaults (CORS for localhost front ends)")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics", true, "Expose Prometheus /metrics endpoint")
	addVerifyFlags(cmd, &opts)

	return cmd
}
