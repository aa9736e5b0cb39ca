// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"
	"testing"

	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/parser"
	"promptscript-cli/pkg/source"
)

// memSource serves documents from a map and counts fetches per location.
type memSource struct {
	files map[string]string

	mu      sync.Mutex
	fetches map[string]int
}

func (m *memSource) Fetch(_ context.Context, location string) (string, error) {
	m.mu.Lock()
	m.fetches[location]++
	m.mu.Unlock()
	raw, ok := m.files[location]
	if !ok {
		return "", &source.NotFoundError{Location: location}
	}
	return raw, nil
}

func (m *memSource) Exists(_ context.Context, location string) bool {
	_, ok := m.files[location]
	return ok
}

func (m *memSource) fetchCount(location string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[location]
}

func newTestResolver(t *testing.T, files map[string]string, opts ...Option) (*Resolver, *memSource) {
	t.Helper()
	src := &memSource{files: files, fetches: map[string]int{}}
	loc := &source.Locator{RegistryRoot: "/registry"}
	return New(src, loc, parser.New(), opts...), src
}

func resolveFile(t *testing.T, r *Resolver, path string) *Result {
	t.Helper()
	res, err := r.ResolveFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ResolveFile(%s) error: %v", path, err)
	}
	if res.Document == nil {
		t.Fatalf("ResolveFile(%s): nil document, diagnostics: %v", path, res.Diagnostics)
	}
	return res
}

func blockOf(t *testing.T, res *Result, name string) document.BlockContent {
	t.Helper()
	b := res.Document.FindBlock(name)
	if b == nil {
		t.Fatalf("resolved document has no block %q", name)
	}
	return b.Content
}

func TestResolveInheritanceConcatenatesText(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/base.prs": `
@identity {
  """
  You are a careful assistant.
  """
}
`,
		"/ws/app.prs": `
@inherit ./base.prs

@identity {
  """
  You specialize in reviews.
  """
}
`,
	})
	res := resolveFile(t, r, "/ws/app.prs")

	want := "You are a careful assistant.\n\nYou specialize in reviews."
	if got := blockOf(t, res, "identity").Text; got != want {
		t.Errorf("identity = %q, want %q", got, want)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", res.Diagnostics)
	}
	if res.Document.Inherit != nil || len(res.Document.Imports) != 0 || len(res.Document.Extends) != 0 {
		t.Error("resolved document still carries composition edges")
	}
}

func TestResolveInheritanceObjectsAndArrays(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/base.prs": `
@standards {
  style: functional
  max_line_length: 100
}

@restrictions {
  - never expose secrets
  - cite sources
}
`,
		"/ws/app.prs": `
@inherit ./base.prs

@standards {
  style: oop
}

@restrictions {
  - cite sources
  - keep answers short
}
`,
	})
	res := resolveFile(t, r, "/ws/app.prs")

	standards := blockOf(t, res, "standards")
	if got := standards.Props["style"].Str; got != "oop" {
		t.Errorf("style = %q, want the child's %q", got, "oop")
	}
	if got := standards.Props["max_line_length"].Num; got != 100 {
		t.Errorf("max_line_length = %v, want the parent's 100", got)
	}

	restrictions := blockOf(t, res, "restrictions")
	if len(restrictions.Items) != 3 {
		t.Fatalf("restrictions has %d items, want 3: %+v", len(restrictions.Items), restrictions.Items)
	}
	for i, want := range []string{"never expose secrets", "cite sources", "keep answers short"} {
		if restrictions.Items[i].Str != want {
			t.Errorf("restrictions[%d] = %q, want %q", i, restrictions.Items[i].Str, want)
		}
	}
}

func TestResolveImportMergesFragment(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/fragments/security.prs": `
@standards {
  sanitize_inputs: true
}

@restrictions {
  - never expose secrets
}
`,
		"/ws/app.prs": `
@use ./fragments/security.prs

@identity {
  """
  App identity.
  """
}

@standards {
  sanitize_inputs: false
  style: oop
}
`,
	})
	res := resolveFile(t, r, "/ws/app.prs")

	// The imported fragment wins conflicts inside shared blocks.
	standards := blockOf(t, res, "standards")
	if got := standards.Props["sanitize_inputs"].Bool; got != true {
		t.Errorf("sanitize_inputs = %v, want the fragment's true", got)
	}
	if got := standards.Props["style"].Str; got != "oop" {
		t.Errorf("style = %q, want the target's %q (no conflict)", got, "oop")
	}

	// Target blocks keep their order; fragment-only blocks append after.
	names := make([]string, len(res.Document.Blocks))
	for i, b := range res.Document.Blocks {
		names[i] = b.Name
	}
	want := []string{"identity", "standards", "restrictions"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("block order = %v, want %v", names, want)
		}
	}
}

func TestResolveImportDeduplicatesText(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/frag.prs": `
@identity {
  """
  Shared guidance.
  """
}
`,
		"/ws/app.prs": `
@use ./frag.prs

@identity {
  """
  Shared guidance.
  """
}
`,
	})
	res := resolveFile(t, r, "/ws/app.prs")

	if got := blockOf(t, res, "identity").Text; got != "Shared guidance." {
		t.Errorf("identity = %q, want the shared prose once", got)
	}
}

func TestResolveAliasedImportAndExtend(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/sec.prs": `
@standards {
  code: {
    style: functional
    max_line_length: 100
  }
}
`,
		"/ws/app.prs": `
@use ./sec.prs as sec

@extend sec.standards.code {
  style: oop
}
`,
	})
	res := resolveFile(t, r, "/ws/app.prs")

	code := blockOf(t, res, "standards").Props["code"]
	if got := code.Props["style"].Str; got != "oop" {
		t.Errorf("standards.code.style = %q, want the extension's %q", got, "oop")
	}
	if got := code.Props["max_line_length"].Num; got != 100 {
		t.Errorf("standards.code.max_line_length = %v, want 100 untouched", got)
	}
	if got := res.Aliases["sec"]; got != "/ws/sec.prs" {
		t.Errorf("alias map = %v, want sec -> /ws/sec.prs", res.Aliases)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", res.Diagnostics)
	}
}

func TestResolveExtendUnknownAliasBlock(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/sec.prs": `
@standards {
  sane: true
}
`,
		"/ws/app.prs": `
@use ./sec.prs as sec

@extend sec.nonexistent {
  x: 1
}
`,
	})
	res := resolveFile(t, r, "/ws/app.prs")

	if !res.HasErrors() {
		t.Fatal("expected a bad_extend_path error diagnostic")
	}
	if res.Diagnostics[0].Code != "bad_extend_path" {
		t.Errorf("diagnostic code = %q, want bad_extend_path", res.Diagnostics[0].Code)
	}
	// The failed extension must leave the document untouched.
	if res.Document.FindBlock("nonexistent") != nil {
		t.Error("failed extension created a block")
	}
}

func TestResolveExtendCreatesMissingPath(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/app.prs": `
@extend deploy.region {
  name: eu-west
}
`,
	})
	res := resolveFile(t, r, "/ws/app.prs")

	deploy := blockOf(t, res, "deploy")
	region := deploy.Props["region"]
	if region.Kind != document.MapValue || region.Props["name"].Str != "eu-west" {
		t.Errorf("deploy.region = %+v, want created path with name eu-west", region)
	}
}

func TestResolveTemplateBinding(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/ws/base.prs": `
@params {
  port: number = 3000
  env: enum(dev, prod) = dev
}

@identity {
  """
  Serve traffic on port {{port}} in {{env}}.
  """
}

@deploy {
  port: {{port}}
}
`,
	}

	t.Run("defaults apply without arguments", func(t *testing.T) {
		t.Parallel()
		r, _ := newTestResolver(t, withFile(files, "/ws/app.prs", "@inherit ./base.prs\n"))
		res := resolveFile(t, r, "/ws/app.prs")
		if got := blockOf(t, res, "identity").Text; got != "Serve traffic on port 3000 in dev." {
			t.Errorf("identity = %q", got)
		}
		if got := blockOf(t, res, "deploy").Props["port"]; got.Kind != document.NumberValue || got.Num != 3000 {
			t.Errorf("deploy.port = %+v, want number 3000", got)
		}
	})

	t.Run("arguments override defaults", func(t *testing.T) {
		t.Parallel()
		r, _ := newTestResolver(t, withFile(files, "/ws/app.prs",
			"@inherit ./base.prs with { port: 8080, env: prod }\n"))
		res := resolveFile(t, r, "/ws/app.prs")
		if got := blockOf(t, res, "identity").Text; got != "Serve traffic on port 8080 in prod." {
			t.Errorf("identity = %q", got)
		}
		if got := blockOf(t, res, "deploy").Props["port"].Num; got != 8080 {
			t.Errorf("deploy.port = %v, want 8080", got)
		}
	})

	t.Run("type mismatch skips the edge", func(t *testing.T) {
		t.Parallel()
		r, _ := newTestResolver(t, withFile(files, "/ws/app.prs",
			"@inherit ./base.prs with { port: loud }\n\n@identity {\n  \"\"\"\n  Own identity.\n  \"\"\"\n}\n"))
		res := resolveFile(t, r, "/ws/app.prs")
		if !res.HasErrors() {
			t.Fatal("expected a parameter_type_mismatch diagnostic")
		}
		if res.Errors()[0].Code != "parameter_type_mismatch" {
			t.Errorf("code = %q, want parameter_type_mismatch", res.Errors()[0].Code)
		}
		if got := blockOf(t, res, "identity").Text; got != "Own identity." {
			t.Errorf("identity = %q, want only the child's own text", got)
		}
	})

	t.Run("enum rejects undeclared option", func(t *testing.T) {
		t.Parallel()
		r, _ := newTestResolver(t, withFile(files, "/ws/app.prs",
			"@inherit ./base.prs with { env: staging }\n"))
		res := resolveFile(t, r, "/ws/app.prs")
		if !res.HasErrors() || res.Errors()[0].Code != "parameter_type_mismatch" {
			t.Errorf("diagnostics = %v, want parameter_type_mismatch for enum", res.Diagnostics)
		}
	})

	t.Run("unknown argument", func(t *testing.T) {
		t.Parallel()
		r, _ := newTestResolver(t, withFile(files, "/ws/app.prs",
			"@inherit ./base.prs with { bogus: 1 }\n"))
		res := resolveFile(t, r, "/ws/app.prs")
		if !res.HasErrors() || res.Errors()[0].Code != "unknown_parameter" {
			t.Errorf("diagnostics = %v, want unknown_parameter", res.Diagnostics)
		}
	})
}

func TestResolveMissingRequiredParameter(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/base.prs": `
@params {
  name: string
}

@identity {
  """
  Hello {{name}}.
  """
}
`,
		"/ws/app.prs": "@inherit ./base.prs\n",
	})
	res := resolveFile(t, r, "/ws/app.prs")

	if !res.HasErrors() || res.Errors()[0].Code != "missing_parameter" {
		t.Errorf("diagnostics = %v, want missing_parameter", res.Diagnostics)
	}
}

func TestResolveInheritanceCycle(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/a.prs": "@inherit ./b.prs\n",
		"/ws/b.prs": "@inherit ./a.prs\n",
	})
	_, err := r.ResolveFile(context.Background(), "/ws/a.prs")

	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("error = %v, want CycleError", err)
	}
	want := []string{"/ws/a.prs", "/ws/b.prs", "/ws/a.prs"}
	if len(cycle.Stack) != len(want) {
		t.Fatalf("cycle stack = %v, want %v", cycle.Stack, want)
	}
	for i := range want {
		if cycle.Stack[i] != want[i] {
			t.Errorf("stack[%d] = %q, want %q", i, cycle.Stack[i], want[i])
		}
	}
	if !strings.Contains(cycle.Error(), "->") {
		t.Errorf("Error() = %q, want rendered chain", cycle.Error())
	}
}

func TestResolveSelfImportCycle(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/a.prs": "@use ./a.prs\n",
	})
	_, err := r.ResolveFile(context.Background(), "/ws/a.prs")

	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("error = %v, want CycleError", err)
	}
}

func TestResolveDiamondFetchesOnce(t *testing.T) {
	t.Parallel()

	r, src := newTestResolver(t, map[string]string{
		"/ws/app.prs": "@use ./b.prs\n@use ./c.prs\n",
		"/ws/b.prs":   "@use ./d.prs\n\n@bee {\n  b: 1\n}\n",
		"/ws/c.prs":   "@use ./d.prs\n\n@cee {\n  c: 1\n}\n",
		"/ws/d.prs":   "@dee {\n  d: 1\n}\n",
	})
	res := resolveFile(t, r, "/ws/app.prs")

	if got := src.fetchCount("/ws/d.prs"); got != 1 {
		t.Errorf("d.prs fetched %d times, want 1", got)
	}
	for _, name := range []string{"bee", "cee", "dee"} {
		if res.Document.FindBlock(name) == nil {
			t.Errorf("missing block %q after diamond merge", name)
		}
	}
	if len(res.Sources) != 4 {
		t.Errorf("sources = %v, want the 4 distinct files", res.Sources)
	}
}

func TestResolveTwiceIsIdempotent(t *testing.T) {
	t.Parallel()

	r, src := newTestResolver(t, map[string]string{
		"/ws/app.prs":  "@use ./missing.prs\n@use ./frag.prs as f\n\n@identity {\n  \"\"\"\n  Still here.\n  \"\"\"\n}\n",
		"/ws/frag.prs": "@tone {\n  \"\"\"\n  Friendly.\n  \"\"\"\n}\n",
	})

	first := resolveFile(t, r, "/ws/app.prs")
	second := resolveFile(t, r, "/ws/app.prs")

	if src.fetchCount("/ws/app.prs") != 1 {
		t.Errorf("app.prs fetched %d times, want 1 (cache hit)", src.fetchCount("/ws/app.prs"))
	}
	if len(first.Diagnostics) != len(second.Diagnostics) {
		t.Errorf("diagnostics differ across runs: %v vs %v", first.Diagnostics, second.Diagnostics)
	}
	if len(first.Sources) != len(second.Sources) {
		t.Errorf("sources differ across runs: %v vs %v", first.Sources, second.Sources)
	}
	if first.Aliases["f"] != "/ws/frag.prs" {
		t.Errorf("first Aliases = %v, want f bound to /ws/frag.prs", first.Aliases)
	}
	if !maps.Equal(first.Aliases, second.Aliases) {
		t.Errorf("aliases differ across runs: %v vs %v", first.Aliases, second.Aliases)
	}
	if first.Document != second.Document {
		t.Error("cache hit should return the identical document")
	}
}

func TestResolveLocalBlockNotInherited(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/base.prs": "@local {\n  \"\"\"\n  Parent-only scratch notes.\n  \"\"\"\n}\n\n@identity {\n  \"\"\"\n  Base.\n  \"\"\"\n}\n",
		"/ws/app.prs":  "@inherit ./base.prs\n\n@local {\n  \"\"\"\n  Child notes.\n  \"\"\"\n}\n",
	})
	res := resolveFile(t, r, "/ws/app.prs")

	if got := blockOf(t, res, "local").Text; got != "Child notes." {
		t.Errorf("local = %q, want only the child's own content", got)
	}
	if got := blockOf(t, res, "identity").Text; got != "Base." {
		t.Errorf("identity = %q, want the inherited content", got)
	}
}

func TestResolveLocalBlockNotImported(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/frag.prs": "@local {\n  \"\"\"\n  Fragment scratch.\n  \"\"\"\n}\n\n@tone {\n  \"\"\"\n  Friendly.\n  \"\"\"\n}\n",
		"/ws/app.prs":  "@use ./frag.prs\n\n@identity {\n  \"\"\"\n  App.\n  \"\"\"\n}\n",
	})
	res := resolveFile(t, r, "/ws/app.prs")

	if res.Document.FindBlock("local") != nil {
		t.Error("fragment @local block reached the importing document")
	}
	if got := blockOf(t, res, "tone").Text; got != "Friendly." {
		t.Errorf("tone = %q, want the imported content", got)
	}
}

func TestResolveLocalBlockSurvivesImportConflict(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/frag.prs": "@local {\n  \"\"\"\n  Fragment scratch.\n  \"\"\"\n}\n",
		"/ws/app.prs":  "@use ./frag.prs\n\n@local {\n  \"\"\"\n  App notes.\n  \"\"\"\n}\n",
	})
	res := resolveFile(t, r, "/ws/app.prs")

	if got := blockOf(t, res, "local").Text; got != "App notes." {
		t.Errorf("local = %q, want the target's own content untouched", got)
	}
}

func TestResolveMissingImportIsSoft(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/ws/app.prs": "@use ./missing.prs\n\n@identity {\n  \"\"\"\n  Intact.\n  \"\"\"\n}\n",
	})
	res := resolveFile(t, r, "/ws/app.prs")

	if !res.HasErrors() || res.Errors()[0].Code != "not_found" {
		t.Fatalf("diagnostics = %v, want a not_found error", res.Diagnostics)
	}
	if got := blockOf(t, res, "identity").Text; got != "Intact." {
		t.Errorf("identity = %q, want target content intact", got)
	}
}

func TestResolveMissingEntry(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{})
	res, err := r.ResolveFile(context.Background(), "/ws/nope.prs")
	if err != nil {
		t.Fatalf("ResolveFile error: %v", err)
	}
	if res.Document != nil {
		t.Error("document should be nil when the entry cannot be loaded")
	}
	if !res.HasErrors() {
		t.Error("expected a not_found diagnostic")
	}
}

func TestResolveRegistryReference(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{
		"/registry/@acme/base@1.0.0.prs": `
@identity {
  """
  Registry base.
  """
}
`,
		"/ws/app.prs": "@inherit @acme/base@1.0.0\n",
	})
	res := resolveFile(t, r, "/ws/app.prs")

	if got := blockOf(t, res, "identity").Text; got != "Registry base." {
		t.Errorf("identity = %q", got)
	}
	found := false
	for _, s := range res.Sources {
		if s == "/registry/@acme/base@1.0.0.prs" {
			found = true
		}
	}
	if !found {
		t.Errorf("sources = %v, missing the registry location", res.Sources)
	}
}

func TestResolveCancelledContext(t *testing.T) {
	t.Parallel()

	r, _ := newTestResolver(t, map[string]string{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &cancelSource{}
	r.src = src
	_, err := r.ResolveFile(ctx, "/ws/app.prs")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

type cancelSource struct{}

func (cancelSource) Fetch(ctx context.Context, _ string) (string, error) {
	return "", ctx.Err()
}

func (cancelSource) Exists(context.Context, string) bool { return false }

func TestResolveEnrichment(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"/ws/app.prs": `
@agents {
  reviewer: {
    model: fast
  }
}

@skills {
  refactor: {
    level: expert
  }
}
`,
		"/ws/agents/reviewer.md": "You review pull requests.",
		"/ws/skills/refactor.md": "How to refactor safely.",
	}

	t.Run("substitutes sibling markdown", func(t *testing.T) {
		t.Parallel()
		r, _ := newTestResolver(t, files)
		res := resolveFile(t, r, "/ws/app.prs")

		reviewer := blockOf(t, res, "agents").Props["reviewer"]
		if got := reviewer.Props["prompt"].Str; got != "You review pull requests." {
			t.Errorf("agent prompt = %q", got)
		}
		if got := reviewer.Props["model"].Str; got != "fast" {
			t.Errorf("agent model = %q, want declared properties kept", got)
		}
		refactor := blockOf(t, res, "skills").Props["refactor"]
		if got := refactor.Props["content"].Str; got != "How to refactor safely." {
			t.Errorf("skill content = %q", got)
		}

		wantSources := map[string]bool{
			"/ws/agents/reviewer.md": false,
			"/ws/skills/refactor.md": false,
		}
		for _, s := range res.Sources {
			if _, tracked := wantSources[s]; tracked {
				wantSources[s] = true
			}
		}
		for loc, seen := range wantSources {
			if !seen {
				t.Errorf("sources = %v, missing native resource %s", res.Sources, loc)
			}
		}
	})

	t.Run("disabled by option", func(t *testing.T) {
		t.Parallel()
		r, _ := newTestResolver(t, files, WithoutEnrichment())
		res := resolveFile(t, r, "/ws/app.prs")
		reviewer := blockOf(t, res, "agents").Props["reviewer"]
		if _, substituted := reviewer.Props["prompt"]; substituted {
			t.Error("enrichment ran despite WithoutEnrichment")
		}
	})
}

func TestInvalidateDropsDependents(t *testing.T) {
	t.Parallel()

	r, src := newTestResolver(t, map[string]string{
		"/ws/base.prs": "@identity {\n  \"\"\"\n  Base.\n  \"\"\"\n}\n",
		"/ws/app.prs":  "@inherit ./base.prs\n",
		"/ws/solo.prs": "@identity {\n  \"\"\"\n  Solo.\n  \"\"\"\n}\n",
	})
	resolveFile(t, r, "/ws/app.prs")
	resolveFile(t, r, "/ws/solo.prs")

	if dropped := r.Invalidate("/ws/base.prs"); dropped != 2 {
		t.Errorf("Invalidate dropped %d entries, want 2 (base and its dependent)", dropped)
	}

	resolveFile(t, r, "/ws/solo.prs")
	if src.fetchCount("/ws/solo.prs") != 1 {
		t.Error("unrelated cache entry was invalidated")
	}
	resolveFile(t, r, "/ws/app.prs")
	if src.fetchCount("/ws/base.prs") != 2 {
		t.Errorf("base.prs fetched %d times, want a refetch after invalidation", src.fetchCount("/ws/base.prs"))
	}
}

// withFile copies the fixture map and adds one file.
func withFile(files map[string]string, path, content string) map[string]string {
	out := make(map[string]string, len(files)+1)
	for k, v := range files {
		out[k] = v
	}
	out[path] = content
	return out
}
