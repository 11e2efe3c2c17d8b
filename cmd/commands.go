// SPDX-License-Identifier: AGPL-3.0-or-later
package cmd

import (
	"fmt"

	"github.com/flowd-org/sigdesk/internal/bridge"
	"github.com/spf13/cobra"
)

// NewCommandsCmd lists the commands the bridge exposes to the front end.
func NewCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List bridge commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range bridge.NewDefault(bridge.Services{}).Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
