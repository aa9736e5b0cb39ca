// SPDX-License-Identifier: MPL-2.0

// Package document defines the PromptScript document tree: the Document
// produced by the parser, its blocks and their content variants, the
// recursive Value sum type, composition edges (inherit, use, extend),
// template parameter declarations, and references to other documents.
//
// The package also provides the structural operations every composition
// step relies on: deep cloning (merges never alias their inputs) and deep
// structural equality via canonical serialization (array merges never
// duplicate structurally-equal elements).
//
// Values in this package are treated as immutable once built: resolver
// merge steps produce new values rather than mutating operands in place.
package document
