// SPDX-License-Identifier: MPL-2.0

package format

import (
	"fmt"

	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/types"
)

type (
	// File is one output file a formatter produced. Path is relative to the
	// output root and always uses forward slashes.
	File struct {
		Path string
		Body []byte
	}

	// Formatter compiles a resolved document into the file set one output
	// target expects. Implementations are stateless and safe for concurrent
	// use.
	Formatter interface {
		// Target names the output format this formatter serves.
		Target() types.Target

		// Format renders the document. The document must be fully resolved:
		// formatters do not understand composition edges or unbound
		// template parameters.
		Format(doc *document.Document) ([]File, error)
	}

	// UnknownTargetError is returned when no formatter serves a target.
	UnknownTargetError struct {
		Target types.Target
	}
)

// ForTarget returns the formatter serving the given target.
func ForTarget(t types.Target) (Formatter, error) {
	switch t {
	case types.TargetClaude:
		return claudeFormatter{}, nil
	case types.TargetCopilot:
		return copilotFormatter{}, nil
	case types.TargetCursor:
		return cursorFormatter{}, nil
	default:
		return nil, &UnknownTargetError{Target: t}
	}
}

// All returns every formatter in the stable target order.
func All() []Formatter {
	var out []Formatter
	for _, t := range types.AllTargets() {
		f, err := ForTarget(t)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Error implements the error interface for UnknownTargetError.
func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("no formatter for target %q", e.Target)
}

// Unwrap returns types.ErrInvalidTarget for errors.Is() compatibility.
func (e *UnknownTargetError) Unwrap() error { return types.ErrInvalidTarget }
