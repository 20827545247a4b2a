// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var undeployCmd = &cobra.Command{
	Use:   "undeploy",
	Short: "Remove everything modstack placed in the game directory",
	Long: `Remove exactly the files the deployment record accounts for, then
clean up directories that were created for them. Files the game shipped
with, and anything added by other tools, stay untouched. The load order
is kept, so the next 'modstack deploy' restores the same state.`,
	Args: cobra.NoArgs,
	RunE: runUndeploy,
}

func runUndeploy(cmd *cobra.Command, _ []string) error {
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
	if report.Removed == 0 && report.Skipped == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("nothing was deployed"))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s removed %d file(s)", SuccessStyle.Render("✓"), report.Removed)
	if report.Skipped > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d already gone)", report.Skipped)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
