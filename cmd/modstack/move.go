// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var moveCmd = &cobra.Command{
	Use:   "move <id> <position>",
	Short: "Change a mod's priority",
	Long: `Move an enabled mod to a new 1-based position in the load order.
Position 1 is the lowest priority; the last position wins every file
conflict. Run 'modstack deploy' afterwards to apply the new order.`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func runMove(cmd *cobra.Command, args []string) error {
	position, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("position must be a number, got %q", args[1])
	}
	s, err := openStore()
	if err != nil {
		return err
	}
	l, err := loadOrder(s)
	if err != nil {
		return err
	}
	if err := l.MoveTo(args[0], position-1); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now at position %d of %d\n",
		SuccessStyle.Render("✓"), ModStyle.Render(args[0]), position, len(l.Sequence()))
	return nil
}
