// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.cue")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, path, err := Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want none", path)
	}
	want := DefaultConfig()
	if cfg.Registry.TimeoutSeconds != want.Registry.TimeoutSeconds {
		t.Errorf("timeout = %d, want default %d", cfg.Registry.TimeoutSeconds, want.Registry.TimeoutSeconds)
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0] != "claude" {
		t.Errorf("targets = %v, want default [claude]", cfg.Targets)
	}
	if cfg.Watch.DebounceMS != 250 {
		t.Errorf("debounce = %d, want 250", cfg.Watch.DebounceMS)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
registry: {
	url:             "https://registry.example.com"
	timeout_seconds: 5
}
targets: ["claude", "cursor"]
output_dir: "./build"
`)

	cfg, path, err := Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if path == "" {
		t.Error("resolved path empty, want the config file")
	}
	if cfg.Registry.URL != "https://registry.example.com" {
		t.Errorf("registry url = %q", cfg.Registry.URL)
	}
	if cfg.Registry.TimeoutSeconds != 5 {
		t.Errorf("timeout = %d, want 5 from file", cfg.Registry.TimeoutSeconds)
	}
	if cfg.Registry.MaxRetries != 3 {
		t.Errorf("max_retries = %d, want default 3 preserved", cfg.Registry.MaxRetries)
	}
	if len(cfg.Targets) != 2 {
		t.Errorf("targets = %v", cfg.Targets)
	}
	if cfg.OutputDir != "./build" {
		t.Errorf("output_dir = %q", cfg.OutputDir)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `ui: verbose: true`)

	cfg, resolved, err := Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if !cfg.UI.Verbose {
		t.Error("ui.verbose = false, want true from file")
	}
}

func TestLoadExplicitPathMissing(t *testing.T) {
	_, _, err := Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want not-found failure", err)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "schema violation names the field",
			content: `registry: timeout_seconds: "soon"`,
			wantErr: "timeout_seconds",
		},
		{
			name:    "unknown target rejected",
			content: `targets: ["emacs"]`,
			wantErr: "targets",
		},
		{
			name:    "syntax error",
			content: `registry: {`,
			wantErr: "config.cue",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			_, _, err := Load(context.Background(), LoadOptions{ConfigDirPath: dir})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PRS_REGISTRY_TOKEN", "secret-token")
	t.Setenv("PRS_OUTPUT_DIR", "/tmp/out")

	cfg, _, err := Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Registry.Token != "secret-token" {
		t.Errorf("registry token = %q, want env override", cfg.Registry.Token)
	}
	if cfg.OutputDir != "/tmp/out" {
		t.Errorf("output_dir = %q, want env override", cfg.OutputDir)
	}
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Load(ctx, LoadOptions{}); err == nil {
		t.Error("Load with canceled context should fail")
	}
}

func TestParsedTargets(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Targets = []string{"claude", "copilot"}
	targets, err := cfg.ParsedTargets()
	if err != nil {
		t.Fatalf("ParsedTargets: %v", err)
	}
	if len(targets) != 2 {
		t.Errorf("targets = %v", targets)
	}

	cfg.Targets = []string{"emacs"}
	if _, err := cfg.ParsedTargets(); err == nil {
		t.Error("ParsedTargets should reject unknown target names")
	}
}
