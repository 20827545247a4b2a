// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"modstack/internal/deploy"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured paths and what is deployed",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	l, err := loadOrder(s)
	if err != nil {
		return err
	}
	rec, err := deploy.ReadRecord(s.Root())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	gameDir := cfg.GameDir
	if gameDir == "" {
		gameDir = WarningStyle.Render("(not configured)")
	}
	fmt.Fprintln(out, TitleStyle.Render("modstack status"))
	fmt.Fprintf(out, "  game dir:  %s\n", gameDir)
	fmt.Fprintf(out, "  store dir: %s\n", s.Root())
	fmt.Fprintf(out, "  link mode: %s\n", cfg.LinkMode)

	fmt.Fprintln(out)
	sequence := l.Sequence()
	if len(sequence) == 0 {
		fmt.Fprintln(out, SubtitleStyle.Render("no mods enabled"))
	} else {
		fmt.Fprintln(out, SubtitleStyle.Render("load order (last wins conflicts):"))
		for i, id := range sequence {
			fmt.Fprintf(out, "  %2d. %s\n", i+1, ModStyle.Render(id))
		}
	}

	fmt.Fprintln(out)
	if rec.Empty() {
		fmt.Fprintln(out, SubtitleStyle.Render("nothing deployed"))
		return nil
	}
	fmt.Fprintf(out, SubtitleStyle.Render("deployed via %s:")+"\n", rec.Technique)
	counts := rec.Mods()
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(out, "  %s: %d file(s)\n", ModStyle.Render(id), counts[id])
	}
	return nil
}
