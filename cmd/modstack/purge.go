// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	purgeYes   bool
	purgeStore bool

	purgeCmd = &cobra.Command{
		Use:   "purge",
		Short: "Undeploy everything and clear the load order",
		Long: `Undeploy every file modstack placed in the game directory and empty
the load order. By default the store is untouched: every mod stays
installed and can be enabled again. With --store, the mods themselves
are removed from the store too.`,
		Args: cobra.NoArgs,
		RunE: runPurge,
	}
)

func init() {
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "skip the confirmation prompt")
	purgeCmd.Flags().BoolVar(&purgeStore, "store", false, "also remove every mod from the store")
}

func runPurge(cmd *cobra.Command, _ []string) error {
	if !purgeYes {
		prompt := "Undeploy all mods and clear the load order? [y/N] "
		if purgeStore {
			prompt = "Undeploy all mods, clear the load order and empty the store? [y/N] "
		}
		fmt.Fprint(cmd.OutOrStdout(), prompt)
		var answer string
		fmt.Fscanln(cmd.InOrStdin(), &answer)
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("aborted"))
			return nil
		}
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	e, err := newEngine(s)
	if err != nil {
		return err
	}
	report, err := e.Undeploy(cmd.Context())
	if err != nil {
		return err
	}

	l, err := loadOrder(s)
	if err != nil {
		return err
	}
	for _, id := range l.Sequence() {
		if err := l.Disable(id); err != nil {
			return err
		}
	}

	removed := 0
	if purgeStore {
		entries, err := s.List()
		if err != nil {
			return err
		}
		guard := deployGuard{storeRoot: s.Root()}
		for _, entry := range entries {
			if err := s.Remove(entry.ID, guard); err != nil {
				return err
			}
			removed++
		}
	}

	if purgeStore {
		fmt.Fprintf(cmd.OutOrStdout(), "%s purged: %d file(s) removed, load order cleared, %d mod(s) deleted\n",
			SuccessStyle.Render("✓"), report.Removed, removed)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s purged: %d file(s) removed, load order cleared\n",
		SuccessStyle.Render("✓"), report.Removed)
	return nil
}
