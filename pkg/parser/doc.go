// SPDX-License-Identifier: MPL-2.0

// Package parser turns PromptScript (.prs) source text into the document
// tree consumed by the resolver.
//
// The language is line-oriented: `#` comments, `@name { ... }` block
// declarations, `@inherit <ref> [with { ... }]`, `@use <ref> [as alias]
// [with { ... }]`, `@extend dotted.path { ... }`, and `@params { ... }`
// template parameter declarations. Block bodies mix triple-quoted
// docstrings, `- item` list lines, and `key: value` properties; values
// nest through `{ ... }` objects and `[ ... ]` lists.
//
// Parsing never panics and never returns a partial tree silently: every
// problem surfaces as a diagnostic, and a document is returned whenever
// enough of the source survived to be useful.
package parser
