// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"fmt"
	"sort"
	"strings"

	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/types"
)

type (
	// Result is a completed resolution: the fully merged document with every
	// composition directive consumed, plus everything a caller needs for
	// reporting and cache invalidation.
	Result struct {
		// Document is the merged document. It has no inheritance, import, or
		// extension edges left and no template parameters awaiting binding
		// from its own call sites.
		Document *document.Document

		// Sources lists every canonical location that contributed content,
		// in first-touch order and without duplicates. File watchers key
		// rebuilds off this set.
		Sources []string

		// Diagnostics are the non-fatal findings accumulated across the
		// whole graph, in discovery order. An error-severity entry means
		// some branch was skipped; the document is still usable.
		Diagnostics []document.Diagnostic

		// Aliases maps the entry document's import aliases to the canonical
		// locations they resolved to, for introspection. Aliases of nested
		// documents are consumed during their own resolution and do not
		// surface here.
		Aliases map[types.Alias]string
	}

	// CycleError is the resolver's only fatal error: a document reachable
	// from itself through inheritance or import edges. The stack lists the
	// canonical locations from the entry document to the repeated one.
	CycleError struct {
		Stack []string
	}
)

// HasErrors reports whether any error-severity diagnostic was collected.
func (r *Result) HasErrors() bool {
	return hasErrors(r.Diagnostics)
}

// Warnings returns the warning-severity diagnostics.
func (r *Result) Warnings() []document.Diagnostic {
	return r.filter(document.SeverityWarning)
}

// Errors returns the error-severity diagnostics.
func (r *Result) Errors() []document.Diagnostic {
	return r.filter(document.SeverityError)
}

func (r *Result) filter(sev document.Severity) []document.Diagnostic {
	var out []document.Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// SortedAliases returns the alias names in lexical order for deterministic
// rendering.
func (r *Result) SortedAliases() []types.Alias {
	out := make([]types.Alias, 0, len(r.Aliases))
	for a := range r.Aliases {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Error implements the error interface for CycleError.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Stack, " -> "))
}
