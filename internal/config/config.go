// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"promptscript-cli/internal/issue"
	"promptscript-cli/pkg/cueutil"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "prs"
	// ConfigFileName is the config file name without extension.
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides (PRS_REGISTRY_TOKEN, ...).
	EnvPrefix = "PRS"
)

//go:embed config_schema.cue
var configSchema string

type (
	// LoadOptions steer where Load looks for the config file.
	LoadOptions struct {
		// ConfigFilePath uses this exact file, failing if it is missing.
		ConfigFilePath string

		// ConfigDirPath overrides the platform config directory.
		ConfigDirPath string
	}
)

// ConfigDir returns the prs configuration directory using the platform's
// conventions: %APPDATA% on Windows, ~/Library/Application Support on macOS,
// $XDG_CONFIG_HOME (default ~/.config) elsewhere.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var dir string
	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, "Library", "Application Support")
	default:
		dir = os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			dir = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(dir, AppName), nil
}

// Load resolves the effective configuration: defaults, then the config file
// (explicit path, the platform config dir, or ./config.cue, in that order of
// preference), then PRS_* environment overrides. It returns the config and
// the path of the file actually loaded ("" when none was found).
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""
	switch {
	case opts.ConfigFilePath != "":
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'prs config show' to see the effective configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := mergeCUEFile(v, opts.ConfigFilePath); err != nil {
			return nil, "", wrapLoadError(err, opts.ConfigFilePath)
		}
		resolvedPath = opts.ConfigFilePath

	default:
		dir := opts.ConfigDirPath
		if dir == "" {
			var err error
			dir, err = ConfigDir()
			if err != nil {
				return nil, "", err
			}
		}
		for _, candidate := range []string{
			filepath.Join(dir, ConfigFileName+"."+ConfigFileExt),
			ConfigFileName + "." + ConfigFileExt,
		} {
			if fileExists(candidate) {
				if err := mergeCUEFile(v, candidate); err != nil {
					return nil, "", wrapLoadError(err, candidate)
				}
				resolvedPath = candidate
				break
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := cfg.ParsedTargets(); err != nil {
		return nil, "", wrapLoadError(err, resolvedPath)
	}
	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("registry.url", d.Registry.URL)
	v.SetDefault("registry.token", d.Registry.Token)
	v.SetDefault("registry.username", d.Registry.Username)
	v.SetDefault("registry.password", d.Registry.Password)
	v.SetDefault("registry.timeout_seconds", d.Registry.TimeoutSeconds)
	v.SetDefault("registry.max_retries", d.Registry.MaxRetries)
	v.SetDefault("registry.cache_ttl_seconds", d.Registry.CacheTTLSeconds)
	v.SetDefault("targets", d.Targets)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("watch.patterns", d.Watch.Patterns)
	v.SetDefault("watch.debounce_ms", d.Watch.DebounceMS)
	v.SetDefault("ui.color_scheme", d.UI.ColorScheme)
	v.SetDefault("ui.verbose", d.UI.Verbose)
}

// mergeCUEFile validates a CUE config file against the embedded #Config
// schema and merges it into viper. The decode goes through a plain map (not
// the Config struct) so viper keeps layering env overrides on top.
func mergeCUEFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if int64(len(data)) > cueutil.DefaultMaxFileSize {
		return fmt.Errorf("%s: config file exceeds %d bytes", path, cueutil.DefaultMaxFileSize)
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}
	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}
	return v.MergeConfigMap(configMap)
}

func wrapLoadError(err error, path string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the values against the schema ('prs config show')").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		BuildError()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
