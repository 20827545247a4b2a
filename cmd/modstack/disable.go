// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var disableCmd = &cobra.Command{
	Use:   "disable <id>...",
	Short: "Take mods out of the load order",
	Long: `Take mods out of the load order. Files they already have in the game
directory stay until the next 'modstack deploy' or 'modstack undeploy'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDisable,
}

func runDisable(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	l, err := loadOrder(s)
	if err != nil {
		return err
	}
	for _, id := range args {
		if err := l.Disable(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s disabled %s\n", SuccessStyle.Render("✓"), ModStyle.Render(id))
	}
	return nil
}
