// SPDX-License-Identifier: AGPL-3.0-or-later
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/flowd-org/sigdesk/internal/verify"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command, which checks a detached signature.
func NewVerifyCmd() *cobra.Command {
	var opts verify.Options

	cmd := &cobra.Command{
		Use:   "verify SIGNATURE FILE",
		Short: "Verify a detached PGP signature over FILE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyConfigDefaults(cmd.Flags(), verifyDefaults(cfg)); err != nil {
				return err
			}
			verifier, err := verify.New(opts)
			if err != nil {
				return err
			}
			res, err := verifier.Verify(cmd.Context(), verify.Request{
				SignaturePath: args[0],
				FilePath:      args[1],
			})
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			if !res.Verified {
				writeMessage(cmd.ErrOrStderr(), res.Message)
				return errVerificationFailed
			}
			writeMessage(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	addVerifyFlags(cmd, &opts)
	return cmd
}

func writeMessage(w io.Writer, msg string) {
	if msg == "" {
		return
	}
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	_, _ = io.WriteString(w, msg)
}
