// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	initForce bool

	initCmd = &cobra.Command{
		Use:   "init [file]",
		Short: "Create a starter PromptScript document",
		Long: `Create a starter PromptScript document in the current directory.

The generated file shows the main composition features: metadata,
content blocks, a fragment import, and a path-addressed extension.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file")
}

func runInit(cmd *cobra.Command, args []string) error {
	filename := defaultEntry
	if len(args) > 0 {
		filename = args[0]
	}

	if _, err := os.Stat(filename); err == nil && !initForce {
		return fmt.Errorf("file '%s' already exists. Use --force to overwrite", filename)
	}

	if err := os.WriteFile(filename, []byte(starterDocument), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	cmd.Printf("%s Created %s\n", SuccessStyle.Render("✓"), PathStyle.Render(absPath))
	cmd.Println()
	cmd.Println(SubtitleStyle.Render("Next steps:"))
	cmd.Println("  1. Edit the document to describe your project")
	cmd.Println("  2. Run 'prs compile' to generate instruction files")
	cmd.Println("  3. Run 'prs watch' to recompile on every change")
	return nil
}

const starterDocument = `# Project instructions entry point.
@meta {
  id: "my-org/my-project"
  version: 0.1.0
  description: "Instructions for AI coding assistants"
}

# Shared fragments compose in with @use:
#   @use ./fragments/security.prs as sec
# and organization bases with @inherit:
#   @inherit @my-org/base@1.0.0

@identity {
  """
  You are a coding assistant for this project.
  Prefer small, focused changes and explain your reasoning.
  """
}

@standards {
  code: {
    style: "idiomatic"
    max_line_length: 100
  }
}

@restrictions {
  - never commit secrets or credentials
  - keep generated files out of version control
}
`
