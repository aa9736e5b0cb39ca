// SPDX-License-Identifier: MPL-2.0

// Package source provides the content backends the resolver fetches raw
// PromptScript text through, and the Locator that turns logical references
// into canonical absolute locations (the cache and cycle-detection keys).
//
// Backends implement the small ContentSource contract: the local filesystem,
// an HTTP registry (auth headers, request timeout, exponential-backoff retry
// that skips client errors, optional TTL-bounded response cache), and a
// composite that falls through an ordered backend list. The resolver is
// agnostic to which backend serves a location.
package source
