// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"errors"
)

// Composite tries an ordered list of backends and serves the first success.
// A later backend is only consulted when every earlier one failed, so a
// local checkout can shadow the shared registry.
type Composite struct {
	backends []ContentSource
}

var _ ContentSource = (*Composite)(nil)

// NewComposite builds a Composite over the given backends, in priority order.
func NewComposite(backends ...ContentSource) *Composite {
	return &Composite{backends: backends}
}

// Fetch returns the first backend's content for the location. When all
// backends fail, the errors are joined so diagnostics show every attempt.
func (c *Composite) Fetch(ctx context.Context, location string) (string, error) {
	if len(c.backends) == 0 {
		return "", &NotFoundError{Location: location}
	}
	var errs []error
	for _, b := range c.backends {
		body, err := b.Fetch(ctx, location)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		errs = append(errs, err)
	}
	return "", errors.Join(errs...)
}

// Exists reports whether any backend has the location.
func (c *Composite) Exists(ctx context.Context, location string) bool {
	for _, b := range c.backends {
		if b.Exists(ctx, location) {
			return true
		}
	}
	return false
}
