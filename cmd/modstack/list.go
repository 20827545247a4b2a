// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"modstack/internal/deploy"
	"modstack/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every mod in the store",
	Long: `Show every mod in the store with its identifier, display name, kind,
load-order position and deployment state. Disabled mods show "-" in the
order column.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	entries, err := s.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("store is empty; add mods with 'modstack install <archive>'"))
		return nil
	}
	l, err := loadOrder(s)
	if err != nil {
		return err
	}
	rec, err := deploy.ReadRecord(s.Root())
	if err != nil {
		return err
	}
	deployedCounts := rec.Mods()

	mods, err := enabledMods(s, l)
	if err != nil {
		return err
	}
	overlay := deploy.ComputeOverlay(mods)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tID\tNAME\tKIND\tSTATE\tCONFLICTS")
	for _, e := range entries {
		orderCol := "-"
		if pos := l.Position(e.ID); pos >= 0 {
			orderCol = fmt.Sprintf("%d", pos+1)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			orderCol, ModStyle.Render(e.ID), e.Meta.Name, e.Meta.Kind,
			modState(e, l.Enabled(e.ID), deployedCounts), conflictTag(overlay, e.ID))
	}
	return w.Flush()
}

// conflictTag classifies a mod's standing in the overlay: whether it wins
// all of its contested files, loses all of them, or some of each.
func conflictTag(overlay *deploy.Overlay, id string) string {
	var wins, losses int
	for _, p := range overlay.ModConflicts(id) {
		wins += len(p.Wins)
		losses += len(p.Losses)
	}
	switch {
	case wins == 0 && losses == 0:
		return "-"
	case losses == 0:
		return SuccessStyle.Render("winner")
	case wins == 0:
		return WarningStyle.Render("loser")
	default:
		return WarningStyle.Render("mixed")
	}
}

// modState summarizes one mod in a word or two.
func modState(e *store.Entry, enabled bool, deployedCounts map[string]int) string {
	if n := deployedCounts[e.ID]; n > 0 {
		return SuccessStyle.Render(fmt.Sprintf("deployed (%d files)", n))
	}
	if e.Meta.Kind == store.KindInstaller && e.Meta.Plan == nil {
		return WarningStyle.Render("needs installer answers")
	}
	if enabled {
		return "enabled"
	}
	return SubtitleStyle.Render("disabled")
}
