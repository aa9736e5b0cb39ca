// SPDX-License-Identifier: MPL-2.0

package document

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidReference is the sentinel error wrapped by InvalidReferenceError.
var ErrInvalidReference = errors.New("invalid document reference")

const (
	// RegistryRef is a namespaced registry reference: @namespace/segments,
	// optionally version-suffixed with @version.
	RegistryRef RefKind = iota + 1
	// RelativeRef is a path relative to the referencing document.
	RelativeRef
)

type (
	// RefKind tags the two reference forms.
	RefKind uint8

	// Reference is a logical pointer to another document. It keeps the raw
	// source text for diagnostics; the loader turns it into a canonical
	// absolute location.
	Reference struct {
		// Raw is the reference exactly as written in the source.
		Raw string

		Kind RefKind

		// Namespace is the registry namespace without the leading "@"
		// (registry references only).
		Namespace string

		// Segments are the registry path segments after the namespace
		// (registry references only).
		Segments []string

		// Version is the optional @version suffix (registry references only).
		Version string

		// RelPath is the path relative to the referencing document's
		// directory (relative references only).
		RelPath string
	}

	// InvalidReferenceError is returned when reference text matches neither
	// reference form.
	InvalidReferenceError struct {
		Raw    string
		Reason string
	}
)

// ParseReference parses reference text as written after @inherit or @use.
//
// Registry form:  @namespace/segment[/segment...][@version]
// Relative form:  anything else, resolved against the referencing document.
func ParseReference(raw string) (Reference, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Reference{}, &InvalidReferenceError{Raw: raw, Reason: "empty reference"}
	}

	if !strings.HasPrefix(trimmed, "@") {
		if strings.Contains(trimmed, "\\") {
			return Reference{}, &InvalidReferenceError{Raw: raw, Reason: "relative references use forward slashes"}
		}
		return Reference{Raw: raw, Kind: RelativeRef, RelPath: trimmed}, nil
	}

	body := trimmed[1:]

	// A second "@" separates the optional version suffix.
	version := ""
	if at := strings.LastIndex(body, "@"); at >= 0 {
		body, version = body[:at], body[at+1:]
		if version == "" {
			return Reference{}, &InvalidReferenceError{Raw: raw, Reason: "empty version suffix"}
		}
	}

	parts := strings.Split(body, "/")
	if len(parts) < 2 || parts[0] == "" {
		return Reference{}, &InvalidReferenceError{Raw: raw, Reason: "registry reference needs @namespace/segment"}
	}
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return Reference{}, &InvalidReferenceError{Raw: raw, Reason: fmt.Sprintf("bad path segment %q", p)}
		}
	}

	return Reference{
		Raw:       raw,
		Kind:      RegistryRef,
		Namespace: parts[0],
		Segments:  parts[1:],
		Version:   version,
	}, nil
}

// String returns the reference as written in the source.
func (r Reference) String() string { return r.Raw }

// Error implements the error interface for InvalidReferenceError.
func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid document reference %q: %s", e.Raw, e.Reason)
}

// Unwrap returns ErrInvalidReference for errors.Is() compatibility.
func (e *InvalidReferenceError) Unwrap() error { return ErrInvalidReference }
