// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"modstack/internal/store"
)

var enableCmd = &cobra.Command{
	Use:   "enable <id>...",
	Short: "Add mods to the load order",
	Long: `Add mods to the end of the load order, giving them the highest
priority. Nothing touches the game directory until 'modstack deploy'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnable,
}

func runEnable(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	l, err := loadOrder(s)
	if err != nil {
		return err
	}
	for _, id := range args {
		entry, err := s.Entry(id)
		if err != nil {
			return err
		}
		if entry.Meta.Kind == store.KindInstaller && entry.Meta.Plan == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("Warning: ")+
				fmt.Sprintf("%s has unanswered installer questions; deploy will refuse it until you run 'modstack answers %s --redo'", id, id))
		}
		if err := l.Enable(id, s); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s enabled %s at position %d\n",
			SuccessStyle.Render("✓"), ModStyle.Render(id), l.Position(id)+1)
	}
	return nil
}
