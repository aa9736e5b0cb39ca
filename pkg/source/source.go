// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel error wrapped by NotFoundError. Backends
// return it when a location has no content (missing file, HTTP 404), which
// the resolver records as a soft resolution error.
var ErrNotFound = errors.New("document not found")

type (
	// ContentSource serves raw PromptScript text for canonical locations.
	// Fetch is the resolver's only blocking operation and must honor
	// context cancellation so a hung backend cannot stall graph resolution.
	ContentSource interface {
		// Fetch returns the raw text stored at the location.
		Fetch(ctx context.Context, location string) (string, error)

		// Exists reports whether the location has content, without
		// necessarily fetching it.
		Exists(ctx context.Context, location string) bool
	}

	// NotFoundError reports a location with no content behind it.
	NotFoundError struct {
		Location string
	}
)

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document not found: %s", e.Location)
}

// Unwrap returns ErrNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }
