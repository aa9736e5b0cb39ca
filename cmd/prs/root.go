// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for prs.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"promptscript-cli/internal/config"

	"github.com/charmbracelet/fang"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug logging.
	verbose bool
	// cfgFile allows specifying a custom config file.
	cfgFile string

	// rootCmd represents the base command when called without any subcommands.
	rootCmd = &cobra.Command{
		Use:   "prs",
		Short: "Compose and compile PromptScript instruction documents",
		Long: TitleStyle.Render("prs") + SubtitleStyle.Render(" - Compose and compile PromptScript instruction documents") + `

prs resolves PromptScript (.prs) documents - instruction files that
compose through inheritance (@inherit), fragment imports (@use), and
path-addressed extension (@extend) - into a single merged document,
then compiles it to the instruction formats AI coding assistants read.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Create a main.prs in your project directory
  2. Compose it from shared fragments and organization bases
  3. Compile with: prs compile

` + SubtitleStyle.Render("Examples:") + `
  prs init                  Create a starter main.prs
  prs compile               Compile main.prs for the configured targets
  prs compile --target cursor ./team.prs
  prs resolve --format json Inspect the merged document
  prs watch                 Recompile whenever a source changes
  prs config show           Show current configuration`,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/prs/config.cue)")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newConfigCommand())

	cobra.OnInitialize(initLogging)
}

// initLogging installs a charmbracelet handler as the process slog default.
// Debug level when --verbose is set; commands and packages below log through
// slog without knowing about the CLI layer.
func initLogging() {
	opts := charmlog.Options{ReportTimestamp: false}
	if verbose {
		opts.Level = charmlog.DebugLevel
		opts.ReportCaller = true
	}
	handler := charmlog.NewWithOptions(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
}

// loadConfig loads configuration, honoring the --config flag.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, path, err := config.Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return nil, err
	}
	if path != "" {
		slog.Debug("loaded configuration", "path", path)
	}
	return cfg, nil
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
