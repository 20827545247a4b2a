// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"modstack/internal/deploy"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Materialize the enabled mods into the game directory",
	Long: `Overlay the enabled mods in load order and place the winning files
into the game directory by hardlink, symlink or copy. Re-running after
changing the order or the enabled set converges the game directory to
the new state; files the game shipped with are never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

func runDeploy(cmd *cobra.Command, _ []string) error {
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
	e, err := newEngine(s)
	if err != nil {
		return err
	}

	report, deployErr := e.Deploy(cmd.Context(), mods)
	if report != nil {
		printDeployReport(cmd, report)
	}
	if deployErr != nil {
		if errors.Is(deployErr, deploy.ErrPartialDeploy) {
			return &ExitError{Code: 1, Err: deployErr}
		}
		return deployErr
	}
	return nil
}

func printDeployReport(cmd *cobra.Command, report *deploy.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s deployed via %s: %d placed, %d unchanged, %d removed\n",
		SuccessStyle.Render("✓"), report.Technique, report.Placed, report.Unchanged, report.Removed)
	for _, issue := range report.Issues {
		fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("Skipped: ")+formatErrorForDisplay(issue.Err, verbose))
	}
}
