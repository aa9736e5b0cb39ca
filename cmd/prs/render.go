// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"promptscript-cli/internal/issue"

	"github.com/spf13/cobra"
)

// printErrorHelp renders the actionable context of a failure before the
// framework prints the one-line error: the suggestions attached to the error,
// and the catalogued issue body when the error links one.
func printErrorHelp(cmd *cobra.Command, err error) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return
	}

	if ae.HasSuggestions() {
		cmd.PrintErrln(WarningStyle.Render("Suggestions:"))
		for _, s := range ae.Suggestions {
			cmd.PrintErrln("  • " + s)
		}
	}

	if ae.IssueId != 0 {
		if entry := issue.Get(ae.IssueId); entry != nil {
			if body, renderErr := entry.Render("auto"); renderErr == nil {
				cmd.PrintErrln(body)
			}
		}
	}

	if verbose {
		cmd.PrintErrln(SubtitleStyle.Render(ae.Format(true)))
	}
}
