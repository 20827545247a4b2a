// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Change a mod's display name",
	Long: `Change a mod's display name. The identifier stays the same, so the
load order and any deployed files are unaffected.`,
	Args: cobra.ExactArgs(2),
	RunE: runRename,
}

func runRename(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	if err := s.SetName(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now %q\n", SuccessStyle.Render("✓"), ModStyle.Render(args[0]), args[1])
	return nil
}
