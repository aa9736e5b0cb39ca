// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"log/slog"

	"promptscript-cli/internal/issue"
	"promptscript-cli/internal/watch"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [entry]",
	Short: "Recompile the entry document whenever a source changes",
	Long: `Recompile the entry document whenever a source file changes.

The watcher monitors the current directory tree for files matching the
configured watch patterns, compiles once immediately, and recompiles
after each change. Compile failures are reported and watching
continues, so a broken edit can be fixed in place. Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVarP(&compileTargets, "target", "t", nil, "output targets (claude, copilot, cursor); overrides config")
	watchCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output directory; overrides config")
}

func runWatch(cmd *cobra.Command, args []string) error {
	entry := defaultEntry
	if len(args) > 0 {
		entry = args[0]
	}

	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	compiler, err := buildCompiler(cmd)
	if err != nil {
		return err
	}

	sess := watch.NewSession(compiler, watch.SessionConfig{
		Entry:    entry,
		Patterns: cfg.Watch.Patterns,
		Debounce: cfg.Watch.Debounce(),
		Logger:   slog.Default(),
	})
	if err := sess.Run(cmd.Context()); err != nil {
		return issue.NewErrorContext().
			WithOperation("watch for changes").
			WithIssue(issue.WatchFailedId).
			Wrap(err).
			BuildError()
	}
	return nil
}
