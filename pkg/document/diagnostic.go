// SPDX-License-Identifier: MPL-2.0

package document

import "fmt"

const (
	// SeverityWarning indicates a recoverable condition worth surfacing.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal error diagnostic: the offending
	// document or edge is skipped but resolution of the rest of the graph
	// continues.
	SeverityError Severity = "error"
)

type (
	// Severity is a diagnostic level.
	Severity string

	// Diagnostic is a structured, non-fatal finding produced by the parser,
	// the validator, or the resolver. Diagnostics are returned to callers
	// (rather than written to stderr) so the CLI owns the rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity

		// Code is a machine-readable identifier (e.g., "parse_error",
		// "unknown_parameter", "fetch_failed").
		Code string

		// Message is the human-readable description.
		Message string

		// Location is the document location (absolute path or registry URL)
		// the diagnostic refers to, when known.
		Location string

		// Line and Column are 1-based source coordinates, or zero when the
		// diagnostic is not tied to a source position.
		Line   int
		Column int

		// Cause is the underlying error, when one exists, for programmatic
		// inspection with errors.Is/As.
		Cause error
	}
)

// String renders the diagnostic for logs and plain-text output.
func (d Diagnostic) String() string {
	pos := d.Location
	if d.Line > 0 {
		pos = fmt.Sprintf("%s:%d:%d", d.Location, d.Line, d.Column)
	}
	if pos == "" {
		return fmt.Sprintf("%s [%s]: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s [%s]: %s", pos, d.Severity, d.Code, d.Message)
}

// Errorf builds an error-severity diagnostic with a formatted message.
func Errorf(code, location, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Location: location,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Warnf builds a warning-severity diagnostic with a formatted message.
func Warnf(code, location, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Location: location,
		Message:  fmt.Sprintf(format, args...),
	}
}
