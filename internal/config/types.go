// SPDX-License-Identifier: MPL-2.0

package config

import (
	"time"

	"promptscript-cli/pkg/source"
	"promptscript-cli/pkg/types"
)

type (
	// Config is the decoded prs configuration.
	Config struct {
		Registry  RegistryConfig `mapstructure:"registry"`
		Targets   []string       `mapstructure:"targets"`
		OutputDir string         `mapstructure:"output_dir"`
		Watch     WatchConfig    `mapstructure:"watch"`
		UI        UIConfig       `mapstructure:"ui"`
	}

	// RegistryConfig configures the HTTP registry backend for
	// @namespace/name references.
	RegistryConfig struct {
		URL             string `mapstructure:"url"`
		Token           string `mapstructure:"token"`
		Username        string `mapstructure:"username"`
		Password        string `mapstructure:"password"`
		TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
		MaxRetries      int    `mapstructure:"max_retries"`
		CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
	}

	// WatchConfig configures recompile-on-change behavior.
	WatchConfig struct {
		Patterns   []string `mapstructure:"patterns"`
		DebounceMS int      `mapstructure:"debounce_ms"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		ColorScheme string `mapstructure:"color_scheme"`
		Verbose     bool   `mapstructure:"verbose"`
	}
)

// DefaultConfig returns the configuration used when no file and no env
// overrides exist. The values mirror the defaults documented in the schema.
func DefaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			TimeoutSeconds:  30,
			MaxRetries:      3,
			CacheTTLSeconds: 300,
		},
		Targets:   []string{"claude"},
		OutputDir: ".",
		Watch: WatchConfig{
			Patterns:   []string{"**/*.prs", "**/*.md"},
			DebounceMS: 250,
		},
		UI: UIConfig{
			ColorScheme: "auto",
		},
	}
}

// Options converts the registry section to the source package's option
// struct.
func (r RegistryConfig) Options() source.RegistryOptions {
	return source.RegistryOptions{
		Token:      r.Token,
		Username:   r.Username,
		Password:   r.Password,
		Timeout:    time.Duration(r.TimeoutSeconds) * time.Second,
		MaxRetries: uint64(r.MaxRetries),
		CacheTTL:   time.Duration(r.CacheTTLSeconds) * time.Second,
	}
}

// ParsedTargets validates and converts the configured target names.
func (c *Config) ParsedTargets() ([]types.Target, error) {
	out := make([]types.Target, 0, len(c.Targets))
	for _, name := range c.Targets {
		t := types.Target(name)
		if ok, errs := t.IsValid(); !ok {
			return nil, errs[0]
		}
		out = append(out, t)
	}
	return out, nil
}

// Debounce returns the watch debounce window as a duration.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}
