// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestRegistryIsComplete(t *testing.T) {
	t.Parallel()

	all := Values()
	if len(all) == 0 {
		t.Fatal("issue registry is empty")
	}
	seen := map[Id]bool{}
	for _, iss := range all {
		if iss.MarkdownMsg() == "" {
			t.Errorf("issue %d has an empty body", iss.Id())
		}
		if seen[iss.Id()] {
			t.Errorf("issue id %d registered twice", iss.Id())
		}
		seen[iss.Id()] = true
	}
	for _, id := range []Id{EntryNotFoundId, ParseFailedId, DependencyCycleId,
		RegistryUnreachableId, ConfigLoadFailedId, OutputWriteFailedId, WatchFailedId} {
		if Get(id) == nil {
			t.Errorf("Get(%d) = nil, want a registered issue", id)
		}
	}
	if Get(Id(9999)) != nil {
		t.Error("Get of unknown id should return nil")
	}
}

func TestIssueRenderIncludesLinks(t *testing.T) {
	orig := render
	t.Cleanup(func() { render = orig })
	var rendered string
	render = func(in, _ string) (string, error) {
		rendered = in
		return in, nil
	}

	iss := &Issue{
		id:       Id(1000),
		mdMsg:    "# Something broke",
		docLinks: []HttpLink{"https://example.com/docs"},
	}
	out, err := iss.Render("auto")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "Something broke") {
		t.Errorf("rendered output missing body: %q", out)
	}
	if !strings.Contains(rendered, "https://example.com/docs") {
		t.Errorf("rendered input missing doc link: %q", rendered)
	}
}

func TestActionableErrorFormat(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewErrorContext().
		WithOperation("fetch registry document").
		WithResource("@acme/base").
		WithSuggestion("Check your network connection").
		WithSuggestion("Verify the registry URL with 'prs config show'").
		Wrap(cause).
		Build()

	if got := err.Error(); got != "failed to fetch registry document: @acme/base: connection refused" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("ActionableError should unwrap to its cause")
	}
	if !err.HasSuggestions() {
		t.Error("HasSuggestions() = false")
	}

	short := err.Format(false)
	if !strings.Contains(short, "• Check your network connection") {
		t.Errorf("Format(false) missing suggestion:\n%s", short)
	}
	if strings.Contains(short, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}

	long := err.Format(true)
	if !strings.Contains(long, "Error chain:") || !strings.Contains(long, "1. connection refused") {
		t.Errorf("Format(true) missing chain:\n%s", long)
	}
}

func TestBuildRequiresOperation(t *testing.T) {
	t.Parallel()

	if err := NewErrorContext().WithResource("x").BuildError(); err != nil {
		t.Errorf("BuildError without operation = %v, want nil", err)
	}
	if ae := WrapWithOperation(nil, "anything"); ae != nil {
		t.Errorf("WrapWithOperation(nil) = %v, want nil", ae)
	}
}
