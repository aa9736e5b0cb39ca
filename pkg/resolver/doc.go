// SPDX-License-Identifier: MPL-2.0

// Package resolver collapses a graph of PromptScript documents connected by
// inheritance, import, and extension edges into one fully merged document
// tree.
//
// The heart of the package is the three-policy merge algebra: inheritance
// lets the more specific child override its base, an import treats the
// freshly pulled-in fragment as authoritative over what has accumulated so
// far (a later declaration in the importing document still wins, because it
// joins the accumulating side of the next merge), and an extension always
// wins over what it addresses. The shape rules — text concatenation,
// unique array concatenation, recursive object merging, promotion to mixed
// content across cases — are shared by all three policies; only the
// conflict winner differs.
//
// The orchestrator drives recursion over the dependency graph with an
// explicit in-progress stack for cycle detection (a cycle is the only fatal
// error), a process-lifetime cache keyed by canonical location, and a flat
// accumulator for every source location touched and every non-fatal
// resolution error collected along the way. One failed branch never stops
// sibling branches from resolving.
package resolver
