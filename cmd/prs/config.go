// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"promptscript-cli/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newConfigCommand creates the `prs config` command tree.
func newConfigCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage prs configuration",
		Long: `Manage prs configuration.

Configuration is stored in:
  - Linux: ~/.config/prs/config.cue
  - macOS: ~/Library/Application Support/prs/config.cue
  - Windows: %APPDATA%\prs\config.cue

Every field can also be set through PRS_* environment variables,
e.g. PRS_REGISTRY_URL or PRS_OUTPUT_DIR.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode configuration: %w", err)
			}
			cmd.Print(string(out))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			cmd.Println(filepath.Join(dir, "config.cue"))
			return nil
		},
	})

	return cfgCmd
}
