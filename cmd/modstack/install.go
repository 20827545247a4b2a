// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"modstack/internal/installer"
	"modstack/internal/store"
)

var (
	// installSkipInstaller leaves installer mods unevaluated.
	installSkipInstaller bool

	installCmd = &cobra.Command{
		Use:   "install <archive>...",
		Short: "Extract mod archives into the store",
		Long: `Extract one or more mod archives (zip, 7z, rar, tar.gz, tar.xz)
into the mod store. Mods that ship an installer descriptor walk you
through their options right away; re-run the questions later with
'modstack answers <id> --redo'.

Installing does not touch the game directory: enable the mod and run
'modstack deploy' when you are ready.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runInstall,
	}
)

func init() {
	installCmd.Flags().BoolVar(&installSkipInstaller, "skip-installer", false, "do not run installer questions now")
}

func runInstall(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}

	for _, archive := range args {
		res, err := s.Ingest(cmd.Context(), archive)
		if err != nil {
			return fmt.Errorf("installing %s: %w", archive, err)
		}
		for _, w := range res.Warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("Warning: ")+w)
		}
		if res.Skipped {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already in store as %s\n", archive, ModStyle.Render(res.Entry.ID))
			continue
		}

		entry := res.Entry
		if entry.Meta.Kind == store.KindInstaller && !installSkipInstaller {
			if err := evaluateInstaller(cmd, s, entry); err != nil {
				return fmt.Errorf("installing %s: %w", archive, err)
			}
			// Reload so the summary shows the evaluated state.
			if entry, err = s.Entry(entry.ID); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s installed %s (%s, %d files)\n",
			SuccessStyle.Render("✓"), ModStyle.Render(entry.ID), entry.Meta.Kind, len(entry.Meta.Plan))
	}
	return nil
}

// evaluateInstaller runs the mod's installer questions and persists the
// resulting plan and answers.
func evaluateInstaller(cmd *cobra.Command, s *store.Store, entry *store.Entry) error {
	d, err := installer.Load(entry.Dir)
	if err != nil {
		return err
	}
	if d.Name != "" && d.Name != entry.Meta.Name {
		// The descriptor's declared name beats the filename guess.
		if err := s.SetName(entry.ID, d.Name); err != nil {
			return err
		}
	}

	recorded := installer.Answers(entry.Meta.Answers)
	answers, err := runInstaller(d, recorded, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	plan, err := d.Plan(entry.Dir, answers)
	if err != nil {
		return err
	}
	return s.SetPlan(entry.ID, plan, answers)
}
