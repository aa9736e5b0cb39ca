// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"os"
	"regexp"
)

type (
	// Option configures a Parser.
	Option func(*options)

	options struct {
		expandEnv bool
		lookupEnv func(string) (string, bool)
	}
)

func defaultOptions() options {
	return options{lookupEnv: os.LookupEnv}
}

// WithEnvExpansion enables `${VAR}` / `${VAR:-default}` substitution over
// the raw source before scanning. Off by default: library callers decide
// whether documents may read the process environment.
func WithEnvExpansion() Option {
	return func(o *options) { o.expandEnv = true }
}

// WithEnvLookup overrides where expansion reads variables from (tests).
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(o *options) { o.lookupEnv = lookup }
}

// envPattern matches ${VAR} and ${VAR:-default}: the same shape the
// language's highlighter recognizes.
var envPattern = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)(?::-([^}]*))?\}`)

func expandEnv(src string, lookup func(string) (string, bool)) string {
	return envPattern.ReplaceAllStringFunc(src, func(match string) string {
		groups := envPattern.FindStringSubmatch(match)
		if val, ok := lookup(groups[1]); ok {
			return val
		}
		return groups[2] // the :-default, or "" when absent
	})
}
