// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"promptscript-cli/internal/compile"
	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/types"

	"github.com/spf13/cobra"
)

// defaultEntry is the entry document compiled when none is given.
const defaultEntry = "main.prs"

var (
	compileTargets []string
	compileOutput  string

	compileCmd = &cobra.Command{
		Use:   "compile [entry]",
		Short: "Resolve an entry document and write target instruction files",
		Long: `Resolve an entry document and write target instruction files.

The entry is a file path (./main.prs) or a registry reference
(@namespace/name@version). Its full composition graph is resolved,
merged, and compiled once per configured target.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompile,
	}
)

func init() {
	compileCmd.Flags().StringSliceVarP(&compileTargets, "target", "t", nil, "output targets (claude, copilot, cursor); overrides config")
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output directory; overrides config")
}

func runCompile(cmd *cobra.Command, args []string) error {
	entry := defaultEntry
	if len(args) > 0 {
		entry = args[0]
	}

	compiler, err := buildCompiler(cmd)
	if err != nil {
		return err
	}

	report, err := compiler.Compile(cmd.Context(), entry)
	if err != nil {
		printErrorHelp(cmd, err)
		return err
	}

	printDiagnostics(cmd, report.Diagnostics)
	for _, f := range report.Files {
		cmd.Printf("%s %s\n", SuccessStyle.Render("✓"), PathStyle.Render(f))
	}
	cmd.Printf("%s\n", SubtitleStyle.Render(fmt.Sprintf(
		"compiled %s from %d source(s)", entry, len(report.Sources))))

	if hasErrorDiagnostics(report.Diagnostics) {
		return &ExitError{Code: 1, Err: fmt.Errorf("compilation finished with errors")}
	}
	return nil
}

// buildCompiler loads configuration and applies the common flag overrides.
func buildCompiler(cmd *cobra.Command) (*compile.Compiler, error) {
	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return nil, err
	}

	var opts []compile.Option
	if len(compileTargets) > 0 {
		targets := make([]types.Target, 0, len(compileTargets))
		for _, t := range compileTargets {
			target := types.Target(t)
			if ok, _ := target.IsValid(); !ok {
				return nil, fmt.Errorf("unknown target %q (valid: claude, copilot, cursor)", t)
			}
			targets = append(targets, target)
		}
		opts = append(opts, compile.WithTargets(targets...))
	}
	if compileOutput != "" {
		opts = append(opts, compile.WithOutputDir(compileOutput))
	}
	return compile.New(cfg, opts...)
}

func printDiagnostics(cmd *cobra.Command, diags []document.Diagnostic) {
	for _, d := range diags {
		style := WarningStyle
		if d.Severity == document.SeverityError {
			style = ErrorStyle
		}
		cmd.PrintErrf("%s %s\n", style.Render(string(d.Severity)+":"), d.String())
	}
}

func hasErrorDiagnostics(diags []document.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == document.SeverityError {
			return true
		}
	}
	return false
}
