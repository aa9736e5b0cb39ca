// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"errors"
	"maps"
	"sync"

	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/source"
	"promptscript-cli/pkg/types"
)

type (
	// Parser turns raw PromptScript text into a document. Findings are
	// returned as diagnostics; a nil document means the text was beyond
	// recovery.
	Parser interface {
		Parse(raw, location string) (*document.Document, []document.Diagnostic)
	}

	// Resolver drives recursive resolution of a document and everything it
	// references. It is safe for concurrent use; the cache is shared across
	// calls for the lifetime of the resolver.
	Resolver struct {
		src    source.ContentSource
		loc    *source.Locator
		parser Parser
		enrich bool

		mu    sync.Mutex
		cache map[string]*cacheEntry
	}

	// Option adjusts resolver construction.
	Option func(*Resolver)

	// cacheEntry holds everything a completed resolution of one location
	// produced, so a cache hit replays the same sources, diagnostics, and
	// alias bindings a fresh resolution would have yielded.
	cacheEntry struct {
		doc     *document.Document
		sources []string
		diags   []document.Diagnostic
		aliases map[types.Alias]string
	}
)

// WithoutEnrichment disables the post-pass that substitutes native markdown
// resources (agents/<name>.md, skills/<name>.md) found next to a source file.
func WithoutEnrichment() Option {
	return func(r *Resolver) { r.enrich = false }
}

// New builds a resolver over the given content source, locator, and parser.
func New(src source.ContentSource, loc *source.Locator, parser Parser, opts ...Option) *Resolver {
	r := &Resolver{
		src:    src,
		loc:    loc,
		parser: parser,
		enrich: true,
		cache:  map[string]*cacheEntry{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve resolves the document the reference points at, recursively
// following inheritance, import, and extension edges. baseDir anchors a
// relative entry reference; it is ignored for registry references.
//
// The only fatal errors are a dependency cycle and context cancellation.
// Everything else (missing sources, parse failures, binding problems) is
// collected in Result.Diagnostics while the rest of the graph resolves; the
// returned document is nil only when the entry document itself could not be
// loaded.
func (r *Resolver) Resolve(ctx context.Context, ref document.Reference, baseDir string) (*Result, error) {
	st := &state{
		onStack: map[string]struct{}{},
		aliases: map[types.Alias]string{},
	}
	g := newGather()
	doc, err := r.resolveRef(ctx, st, g, ref, baseDir)
	if err != nil {
		return nil, err
	}
	return &Result{
		Document:    doc,
		Sources:     g.sources,
		Diagnostics: g.diags,
		Aliases:     st.aliases,
	}, nil
}

// ResolveFile resolves a document given as a filesystem path, the CLI entry
// point form.
func (r *Resolver) ResolveFile(ctx context.Context, path string) (*Result, error) {
	ref := document.Reference{Raw: path, Kind: document.RelativeRef, RelPath: path}
	return r.Resolve(ctx, ref, "")
}

// Invalidate drops every cache entry whose resolution touched any of the
// given canonical locations, returning how many entries were dropped. Watch
// mode calls it when a source file changes so the next resolution rereads
// the affected subgraph.
func (r *Resolver) Invalidate(locations ...string) int {
	changed := make(map[string]struct{}, len(locations))
	for _, loc := range locations {
		changed[loc] = struct{}{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for key, entry := range r.cache {
		for _, src := range entry.sources {
			if _, hit := changed[src]; hit {
				delete(r.cache, key)
				dropped++
				break
			}
		}
	}
	return dropped
}

// ClearCache drops every cache entry.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = map[string]*cacheEntry{}
}

func (r *Resolver) resolveRef(ctx context.Context, st *state, g *gather, ref document.Reference, baseDir string) (*document.Document, error) {
	loc, err := r.loc.Locate(ref, baseDir)
	if err != nil {
		d := document.Errorf("bad_reference", baseDir, "cannot locate %q: %v", ref.Raw, err)
		d.Cause = err
		g.diag(d)
		return nil, nil
	}
	return r.resolveLocation(ctx, st, g, loc)
}

func (r *Resolver) resolveLocation(ctx context.Context, st *state, g *gather, loc string) (*document.Document, error) {
	if _, active := st.onStack[loc]; active {
		stack := append(append([]string(nil), st.stack...), loc)
		return nil, &CycleError{Stack: stack}
	}
	if entry := r.cached(loc); entry != nil {
		g.mergeSources(entry.sources)
		g.mergeDiags(entry.diags)
		if len(st.stack) == 0 {
			maps.Copy(st.aliases, entry.aliases)
		}
		return entry.doc, nil
	}

	st.push(loc)
	defer st.pop(loc)

	// Gather per location so the cache entry carries the full transitive
	// source set and diagnostics of this subtree, independent of what the
	// caller has already seen.
	lg := newGather()
	doc, aliases, err := r.resolveFresh(ctx, st, lg, loc)
	g.mergeSources(lg.sources)
	g.mergeDiags(lg.diags)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		r.store(loc, &cacheEntry{doc: doc, sources: lg.sources, diags: lg.diags, aliases: aliases})
	}
	// Only the entry document's aliases surface in the result; nested
	// documents consume their own imports during merging.
	if len(st.stack) == 1 {
		maps.Copy(st.aliases, aliases)
	}
	return doc, nil
}

func (r *Resolver) resolveFresh(ctx context.Context, st *state, g *gather, loc string) (*document.Document, map[types.Alias]string, error) {
	raw, err := r.src.Fetch(ctx, loc)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, err
		}
		code := "fetch_failed"
		if errors.Is(err, source.ErrNotFound) {
			code = "not_found"
		}
		d := document.Errorf(code, loc, "cannot load document: %v", err)
		d.Cause = err
		g.diag(d)
		return nil, nil, nil
	}
	g.source(loc)

	doc, pdiags := r.parser.Parse(raw, loc)
	g.mergeDiags(pdiags)
	if doc == nil {
		return nil, nil, nil
	}
	doc.Location = loc
	dir := source.DirOf(loc)

	if doc.Inherit != nil {
		edge := *doc.Inherit
		doc.Inherit = nil
		parent, err := r.resolveRef(ctx, st, g, edge.Ref, dir)
		if err != nil {
			return nil, nil, err
		}
		if parent != nil {
			if bound, ok := r.applyBinding(g, parent, edge.Args, loc); ok {
				doc = mergeInherited(bound, doc)
			}
		}
	}

	imports := doc.Imports
	doc.Imports = nil
	aliases := aliasTable{}
	bindings := map[types.Alias]string{}
	for _, edge := range imports {
		frag, err := r.resolveRef(ctx, st, g, edge.Ref, dir)
		if err != nil {
			return nil, nil, err
		}
		if frag == nil {
			continue
		}
		bound, ok := r.applyBinding(g, frag, edge.Args, loc)
		if !ok {
			continue
		}
		doc = mergeImported(doc, bound)
		if edge.Alias != "" {
			aliases[edge.Alias] = &aliasRecord{Alias: edge.Alias, Ref: edge.Ref, Doc: bound}
			bindings[edge.Alias] = bound.Location
		}
	}

	extends := doc.Extends
	doc.Extends = nil
	for _, edge := range extends {
		if d := applyExtend(doc, edge, aliases); d != nil {
			g.diag(*d)
		}
	}

	if r.enrich {
		r.enrichNative(ctx, g, doc, loc)
	}
	return doc, bindings, nil
}

// applyBinding binds call-site arguments against the referenced document's
// declared parameters and interpolates. A binding error skips the edge; an
// interpolation error is recorded but the (partially substituted) document
// is still merged so the failure stays visible downstream.
func (r *Resolver) applyBinding(g *gather, target *document.Document, args []document.ParamArgument, site string) (*document.Document, bool) {
	if !target.HasParams() && len(args) == 0 {
		return target, true
	}
	b, diags := bindParams(target, args, site)
	g.mergeDiags(diags)
	if hasErrors(diags) {
		return nil, false
	}
	out, idiags := interpolate(target, b)
	g.mergeDiags(idiags)
	return out, true
}

func (r *Resolver) cached(loc string) *cacheEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache[loc]
}

func (r *Resolver) store(loc string, entry *cacheEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[loc] = entry
}

type (
	// state is the bookkeeping of one top-level Resolve call.
	state struct {
		stack   []string
		onStack map[string]struct{}
		aliases map[types.Alias]string
	}

	// gather accumulates the sources and diagnostics of one resolution
	// scope, deduplicating so a fragment reachable through several paths
	// contributes once.
	gather struct {
		sources   []string
		sourceSet map[string]struct{}
		diags     []document.Diagnostic
		diagSet   map[string]struct{}
	}
)

func (st *state) push(loc string) {
	st.stack = append(st.stack, loc)
	st.onStack[loc] = struct{}{}
}

func (st *state) pop(loc string) {
	st.stack = st.stack[:len(st.stack)-1]
	delete(st.onStack, loc)
}

func newGather() *gather {
	return &gather{
		sourceSet: map[string]struct{}{},
		diagSet:   map[string]struct{}{},
	}
}

func (g *gather) source(loc string) {
	if _, dup := g.sourceSet[loc]; dup {
		return
	}
	g.sourceSet[loc] = struct{}{}
	g.sources = append(g.sources, loc)
}

func (g *gather) mergeSources(locs []string) {
	for _, loc := range locs {
		g.source(loc)
	}
}

func (g *gather) diag(d document.Diagnostic) {
	key := d.String()
	if _, dup := g.diagSet[key]; dup {
		return
	}
	g.diagSet[key] = struct{}{}
	g.diags = append(g.diags, d)
}

func (g *gather) mergeDiags(diags []document.Diagnostic) {
	for _, d := range diags {
		g.diag(d)
	}
}
