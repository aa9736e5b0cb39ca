// SPDX-License-Identifier: MPL-2.0

// Package compile drives the full pipeline: resolve an entry document,
// validate every parsed file along the way, format for the configured
// targets, and write the output files.
package compile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"promptscript-cli/internal/config"
	"promptscript-cli/internal/issue"
	"promptscript-cli/internal/validator"
	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/format"
	"promptscript-cli/pkg/parser"
	"promptscript-cli/pkg/resolver"
	"promptscript-cli/pkg/source"
	"promptscript-cli/pkg/types"
)

type (
	// Compiler is a configured pipeline instance. It holds the resolver
	// (and with it the resolution cache) so watch mode can invalidate
	// selectively between runs.
	Compiler struct {
		cfg     *config.Config
		res     *resolver.Resolver
		targets []types.Target
		outDir  string
		log     *slog.Logger
	}

	// Option adjusts compiler construction.
	Option func(*Compiler)

	// Report summarizes one compilation.
	Report struct {
		// Entry is the entry reference as given.
		Entry string

		// Files lists the written output paths.
		Files []string

		// Sources lists every location that contributed content, the set
		// watch mode monitors.
		Sources []string

		// Diagnostics are the non-fatal findings of the whole run.
		Diagnostics []document.Diagnostic
	}
)

// WithTargets overrides the configured output targets.
func WithTargets(targets ...types.Target) Option {
	return func(c *Compiler) {
		if len(targets) > 0 {
			c.targets = targets
		}
	}
}

// WithOutputDir overrides the configured output root.
func WithOutputDir(dir string) Option {
	return func(c *Compiler) {
		if dir != "" {
			c.outDir = dir
		}
	}
}

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(log *slog.Logger) Option {
	return func(c *Compiler) { c.log = log }
}

// New wires a compiler from configuration: filesystem source, HTTP registry
// when one is configured, and a parser that validates every document it
// parses.
func New(cfg *config.Config, opts ...Option) (*Compiler, error) {
	targets, err := cfg.ParsedTargets()
	if err != nil {
		return nil, issue.WrapWithOperation(err, "configure output targets")
	}

	var backend source.ContentSource = &source.FS{}
	if cfg.Registry.URL != "" {
		backend = source.NewComposite(&source.FS{}, source.NewRegistry(cfg.Registry.Options()))
	}
	loc := &source.Locator{RegistryRoot: cfg.Registry.URL}

	c := &Compiler{
		cfg:     cfg,
		res:     resolver.New(backend, loc, validatingParser{parser.New(parser.WithEnvExpansion())}),
		targets: targets,
		outDir:  cfg.OutputDir,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Resolver exposes the underlying resolver for cache invalidation.
func (c *Compiler) Resolver() *resolver.Resolver { return c.res }

// Resolve resolves an entry reference without formatting, for `prs resolve`.
func (c *Compiler) Resolve(ctx context.Context, entry string) (*resolver.Result, error) {
	ref, err := document.ParseReference(entry)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse entry reference").
			WithResource(entry).
			WithSuggestion("Pass a file path (./main.prs) or a registry reference (@namespace/name)").
			Wrap(err).
			BuildError()
	}

	res, err := c.res.Resolve(ctx, ref, "")
	if err != nil {
		var cycle *resolver.CycleError
		if errors.As(err, &cycle) {
			return nil, issue.NewErrorContext().
				WithOperation("resolve document graph").
				WithResource(entry).
				WithSuggestion("Break the cycle by removing one of the listed @inherit or @use edges").
				WithIssue(issue.DependencyCycleId).
				Wrap(err).
				BuildError()
		}
		return nil, err
	}
	if res.Document == nil {
		return nil, issue.NewErrorContext().
			WithOperation("resolve entry document").
			WithResource(entry).
			WithSuggestion("Check the path for typos").
			WithSuggestion("Run 'prs init' to create a starter document").
			WithIssue(entryFailureIssue(res.Diagnostics)).
			Wrap(firstError(res.Diagnostics)).
			BuildError()
	}
	c.log.Debug("resolved entry",
		"entry", entry,
		"sources", len(res.Sources),
		"diagnostics", len(res.Diagnostics))
	return res, nil
}

// Compile runs the full pipeline for one entry reference.
func (c *Compiler) Compile(ctx context.Context, entry string) (*Report, error) {
	res, err := c.Resolve(ctx, entry)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Entry:       entry,
		Sources:     res.Sources,
		Diagnostics: res.Diagnostics,
	}
	for _, target := range c.targets {
		f, err := format.ForTarget(target)
		if err != nil {
			return report, issue.WrapWithOperation(err, "select output format")
		}
		files, err := f.Format(res.Document)
		if err != nil {
			return report, issue.WrapWithOperation(err, fmt.Sprintf("format for %s", target))
		}
		for _, file := range files {
			path := filepath.Join(c.outDir, filepath.FromSlash(file.Path))
			if err := writeFile(path, file.Body); err != nil {
				return report, issue.NewErrorContext().
					WithOperation("write output file").
					WithResource(path).
					WithSuggestion("Check permissions on the output directory").
					WithIssue(issue.OutputWriteFailedId).
					Wrap(err).
					BuildError()
			}
			report.Files = append(report.Files, path)
			c.log.Debug("wrote output", "target", target, "path", path)
		}
	}
	return report, nil
}

// validatingParser layers semantic validation on top of the parser so the
// resolver surfaces meaning-level findings for every document it loads.
type validatingParser struct {
	inner *parser.Parser
}

func (p validatingParser) Parse(raw, location string) (*document.Document, []document.Diagnostic) {
	doc, diags := p.inner.Parse(raw, location)
	if doc != nil {
		diags = append(diags, validator.Validate(doc)...)
	}
	return doc, diags
}

func writeFile(path string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o644)
}

// entryFailureIssue maps the diagnostic that sank the entry document to the
// catalogued issue with the matching remediation steps.
func entryFailureIssue(diags []document.Diagnostic) issue.Id {
	for _, d := range diags {
		if d.Severity != document.SeverityError {
			continue
		}
		switch d.Code {
		case "not_found":
			return issue.EntryNotFoundId
		case "fetch_failed":
			return issue.RegistryUnreachableId
		case "parse_error":
			return issue.ParseFailedId
		}
	}
	return issue.EntryNotFoundId
}

func firstError(diags []document.Diagnostic) error {
	for _, d := range diags {
		if d.Severity == document.SeverityError {
			if d.Cause != nil {
				return d.Cause
			}
			return errors.New(d.Message)
		}
	}
	return nil
}
