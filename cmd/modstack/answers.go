// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"modstack/internal/store"
)

var (
	answersRedo bool

	answersCmd = &cobra.Command{
		Use:   "answers <id>",
		Short: "Show or redo a mod's installer answers",
		Long: `Show the installer selections recorded for a mod. With --redo the
installer questions run again, seeded with the recorded answers, and
the mod's file selection is recomputed. Deployed files change only on
the next 'modstack deploy'.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnswers,
	}
)

func init() {
	answersCmd.Flags().BoolVar(&answersRedo, "redo", false, "run the installer questions again")
}

func runAnswers(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	entry, err := s.Entry(args[0])
	if err != nil {
		return err
	}
	if entry.Meta.Kind != store.KindInstaller {
		return fmt.Errorf("%s has no installer; its whole tree deploys as-is", entry.ID)
	}

	if answersRedo {
		if err := evaluateInstaller(cmd, s, entry); err != nil {
			return err
		}
		if entry, err = s.Entry(entry.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s now selects %d file(s)\n",
			SuccessStyle.Render("✓"), ModStyle.Render(entry.ID), len(entry.Meta.Plan))
		return nil
	}

	if len(entry.Meta.Answers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("no answers recorded; run with --redo"))
		return nil
	}
	groups := make([]string, 0, len(entry.Meta.Answers))
	for group := range entry.Meta.Answers {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	for _, group := range groups {
		selected := entry.Meta.Answers[group]
		if len(selected) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", group, SubtitleStyle.Render("(none)"))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", group, strings.Join(selected, ", "))
	}
	return nil
}
