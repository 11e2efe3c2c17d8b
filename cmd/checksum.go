// SPDX-License-Identifier: AGPL-3.0-or-later
package cmd

import (
	"fmt"

	"github.com/flowd-org/sigdesk/internal/checksum"
	"github.com/spf13/cobra"
)

// NewChecksumCmd creates the checksum command.
func NewChecksumCmd() *cobra.Command {
	var req checksum.Request

	cmd := &cobra.Command{
		Use:   "checksum FILE",
		Short: "Compare the digest of FILE against an expected value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.FilePath = args[0]
			res, err := checksum.Verify(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Summary)
			if !res.Match {
				return errChecksumMismatch
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Expected, "expected", "", "Expected hex digest")
	cmd.Flags().StringVar(&req.Algorithm, "algorithm", checksum.SHA256, "Digest algorithm (SHA-256|SHA-512)")
	_ = cmd.MarkFlagRequired("expected")
	return cmd
}
