// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <id>...",
	Short: "Delete mods from the store",
	Long: `Delete mods from the store, including their extracted trees and
metadata. A mod with files in the game directory cannot be removed;
undeploy or disable it and deploy again first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	l, err := loadOrder(s)
	if err != nil {
		return err
	}

	guard := deployGuard{storeRoot: s.Root()}
	for _, id := range args {
		if err := s.Remove(id, guard); err != nil {
			return err
		}
		// Drop it from the load order too, so the list never points at
		// a mod that is gone.
		if l.Enabled(id) {
			if err := l.Disable(id); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s removed %s\n", SuccessStyle.Render("✓"), ModStyle.Render(id))
	}
	return nil
}
