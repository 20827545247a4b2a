// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"modstack/internal/deploy"
)

var (
	conflictsMod string

	conflictsCmd = &cobra.Command{
		Use:   "conflicts",
		Short: "Show files provided by more than one enabled mod",
		Long: `Show every game file that more than one enabled mod provides, with
the contributors in load order; the last one listed wins. Use --mod to
see one mod's conflicts grouped by the other mod involved.`,
		Args: cobra.NoArgs,
		RunE: runConflicts,
	}
)

func init() {
	conflictsCmd.Flags().StringVar(&conflictsMod, "mod", "", "summarize conflicts for one mod")
}

func runConflicts(cmd *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	l, err := loadOrder(s)
	if err != nil {
		return err
	}
	mods, err := enabledMods(s, l)
	if err != nil {
		return err
	}
	overlay := deploy.ComputeOverlay(mods)
	out := cmd.OutOrStdout()

	if conflictsMod != "" {
		if !s.Has(conflictsMod) {
			return fmt.Errorf("unknown mod %q", conflictsMod)
		}
		pairs := overlay.ModConflicts(conflictsMod)
		if len(pairs) == 0 {
			fmt.Fprintf(out, "%s conflicts with nothing\n", ModStyle.Render(conflictsMod))
			return nil
		}
		total, won := overlay.Provides(conflictsMod)
		fmt.Fprintf(out, "%s provides %d file(s), wins %d\n", ModStyle.Render(conflictsMod), total, won)
		if total > 0 && won == 0 {
			fmt.Fprintln(out, WarningStyle.Render("  every file is overwritten by later mods"))
		}
		for _, p := range pairs {
			fmt.Fprintf(out, "%s (%d shared file(s)):\n", ModStyle.Render(p.Other), len(p.Wins)+len(p.Losses))
			for _, dest := range p.Wins {
				fmt.Fprintf(out, "  %s %s\n", SuccessStyle.Render("wins "), dest)
			}
			for _, dest := range p.Losses {
				fmt.Fprintf(out, "  %s %s\n", WarningStyle.Render("loses"), dest)
			}
		}
		return nil
	}

	conflicts := overlay.Conflicts()
	if len(conflicts) == 0 {
		fmt.Fprintln(out, SubtitleStyle.Render("no conflicts between enabled mods"))
		return nil
	}
	for _, c := range conflicts {
		fmt.Fprintln(out, TitleStyle.Render(c.Destination))
		for i, contributor := range c.Contributors {
			marker := "  "
			if i == len(c.Contributors)-1 {
				marker = SuccessStyle.Render("✓ ")
			}
			fmt.Fprintf(out, "  %s%s (%s)\n", marker, ModStyle.Render(contributor.Mod), contributor.Source)
		}
	}
	return nil
}
