// SPDX-License-Identifier: AGPL-3.0-or-later
package cmd

import (
	"fmt"

	"github.com/flowd-org/sigdesk/internal/greet"
	"github.com/spf13/cobra"
)

// NewGreetCmd creates the greet command.
func NewGreetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "greet NAME",
		Short: "Print the front-end greeting for NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), greet.Greet(args[0]))
			return nil
		},
	}
}
