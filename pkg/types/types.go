// SPDX-License-Identifier: MPL-2.0

// Package types defines cross-cutting DDD Value Types used by multiple domain
// packages (document, resolver, format, config). These are foundation types
// that carry semantic meaning and validation but have no domain-specific
// dependencies.
//
// This package is a leaf dependency: it imports only the standard library.
// Domain packages import it; it never imports domain packages.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTarget is the sentinel error wrapped by InvalidTargetError.
var ErrInvalidTarget = errors.New("invalid output target")

// ErrInvalidAlias is the sentinel error wrapped by InvalidAliasError.
var ErrInvalidAlias = errors.New("invalid import alias")

const (
	// TargetClaude compiles to Claude Code instruction files (CLAUDE.md plus
	// .claude/agents/*.md).
	TargetClaude Target = "claude"
	// TargetCopilot compiles to a single .github/copilot-instructions.md.
	TargetCopilot Target = "copilot"
	// TargetCursor compiles to .cursor/rules/*.mdc files.
	TargetCursor Target = "cursor"
)

type (
	// Target identifies an output format a resolved document compiles to.
	// The zero value ("") is invalid.
	Target string

	// InvalidTargetError is returned when a Target is not one of the known
	// output formats.
	InvalidTargetError struct {
		Value Target
	}

	// Alias is the local name bound to an imported fragment (the "as" clause
	// of a @use statement). The zero value ("") means the import is unaliased.
	// Non-zero values must be identifiers: a letter or underscore followed by
	// letters, digits, underscores, or hyphens.
	Alias string

	// InvalidAliasError is returned when an Alias value is not a valid
	// identifier.
	InvalidAliasError struct {
		Value Alias
	}
)

// AllTargets lists every supported output target in stable order.
func AllTargets() []Target {
	return []Target{TargetClaude, TargetCopilot, TargetCursor}
}

// String returns the string representation of the Target.
func (t Target) String() string { return string(t) }

// IsValid returns whether the Target names a known output format.
func (t Target) IsValid() (bool, []error) {
	switch t {
	case TargetClaude, TargetCopilot, TargetCursor:
		return true, nil
	}
	return false, []error{&InvalidTargetError{Value: t}}
}

// Error implements the error interface for InvalidTargetError.
func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid output target %q (expected: claude, copilot, cursor)", e.Value)
}

// Unwrap returns ErrInvalidTarget for errors.Is() compatibility.
func (e *InvalidTargetError) Unwrap() error { return ErrInvalidTarget }

// String returns the string representation of the Alias.
func (a Alias) String() string { return string(a) }

// IsValid returns whether the Alias is valid. The zero value ("") is valid
// (means no alias bound).
func (a Alias) IsValid() (bool, []error) {
	if a == "" {
		return true, nil
	}
	if !isIdentifier(string(a)) {
		return false, []error{&InvalidAliasError{Value: a}}
	}
	return true, nil
}

// Error implements the error interface for InvalidAliasError.
func (e *InvalidAliasError) Error() string {
	return fmt.Sprintf("invalid import alias %q: must start with a letter or underscore and contain only letters, digits, underscores, or hyphens", e.Value)
}

// Unwrap returns ErrInvalidAlias for errors.Is() compatibility.
func (e *InvalidAliasError) Unwrap() error { return ErrInvalidAlias }

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	// A trailing hyphen reads like a typo; reject it outright.
	return !strings.HasSuffix(s, "-")
}
