// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"promptscript-cli/internal/compile"
)

type (
	// SessionConfig holds the parameters for a Session.
	SessionConfig struct {
		// Entry is the entry reference compiled on every change.
		Entry string

		// BaseDir is the watched tree root; the working directory when empty.
		BaseDir string

		// Patterns select which files trigger a recompile.
		Patterns []string

		// Debounce is the quiet period before a recompile.
		Debounce time.Duration

		// Logger receives compile results and failures; slog.Default() when nil.
		Logger *slog.Logger
	}

	// Session recompiles an entry document whenever one of its source files
	// changes. Compile failures are logged, never fatal: the session keeps
	// watching so the offending edit can be fixed.
	Session struct {
		compiler *compile.Compiler
		cfg      SessionConfig
		log      *slog.Logger

		mu      sync.Mutex
		outputs map[string]struct{}
	}
)

// NewSession builds a Session over an already-configured compiler.
func NewSession(compiler *compile.Compiler, cfg SessionConfig) *Session {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		compiler: compiler,
		cfg:      cfg,
		log:      log,
		outputs:  map[string]struct{}{},
	}
}

// Run compiles once, then blocks watching for changes until ctx is
// cancelled.
func (s *Session) Run(ctx context.Context) error {
	var w *Watcher
	w, err := New(Config{
		Patterns: s.cfg.Patterns,
		Debounce: s.cfg.Debounce,
		BaseDir:  s.cfg.BaseDir,
		OnChange: func(ctx context.Context, changed []string) error {
			s.onChange(ctx, w.BaseDir(), changed)
			return nil
		},
		Logger: s.log,
	})
	if err != nil {
		return err
	}

	s.recompile(ctx, nil)
	s.log.Info("watching for changes",
		"entry", s.cfg.Entry,
		"dir", w.BaseDir(),
		"patterns", s.cfg.Patterns)
	return w.Run(ctx)
}

// onChange maps changed paths to absolute form, drops files the previous
// compile wrote itself, and recompiles when anything real remains.
func (s *Session) onChange(ctx context.Context, baseDir string, changed []string) {
	s.mu.Lock()
	var real []string
	for _, rel := range changed {
		abs := rel
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(baseDir, rel)
		}
		if _, selfWritten := s.outputs[abs]; selfWritten {
			continue
		}
		real = append(real, abs)
	}
	s.mu.Unlock()

	if len(real) == 0 {
		return
	}
	s.log.Info("sources changed", "files", real)
	s.recompile(ctx, real)
}

// recompile invalidates cache entries touched by the changed paths and runs
// the pipeline. A nil changed slice (the initial run) compiles from a cold
// cache.
func (s *Session) recompile(ctx context.Context, changed []string) {
	if len(changed) > 0 {
		dropped := s.compiler.Resolver().Invalidate(changed...)
		s.log.Debug("invalidated cache entries", "count", dropped)
	}

	report, err := s.compiler.Compile(ctx, s.cfg.Entry)
	if err != nil {
		s.log.Error("compile failed", "entry", s.cfg.Entry, "error", err)
		return
	}

	s.mu.Lock()
	clear(s.outputs)
	for _, f := range report.Files {
		if abs, absErr := filepath.Abs(f); absErr == nil {
			s.outputs[abs] = struct{}{}
		}
	}
	s.mu.Unlock()

	for _, d := range report.Diagnostics {
		s.log.Warn("diagnostic", "detail", d.String())
	}
	s.log.Info("compiled",
		"entry", s.cfg.Entry,
		"files", len(report.Files),
		"sources", len(report.Sources),
		"diagnostics", len(report.Diagnostics))
}
