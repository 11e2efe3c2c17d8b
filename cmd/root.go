// SPDX-License-Identifier: AGPL-3.0-or-later
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	errVerificationFailed = errors.New("signature verification failed")
	errChecksumMismatch   = errors.New("checksum mismatch")
)

// NewRootCmd assembles the sigdesk command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sigdesk",
		Short:         "Verify detached signatures and checksums, and serve them to a desktop front end",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides SIGDESK_CONFIG)")

	rootCmd.AddCommand(NewGreetCmd())
	rootCmd.AddCommand(NewVerifyCmd())
	rootCmd.AddCommand(NewChecksumCmd())
	rootCmd.AddCommand(NewCommandsCmd())
	rootCmd.AddCommand(NewServeCmd())
	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
