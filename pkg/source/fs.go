// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FS serves documents from the local filesystem. The zero value is ready to
// use. Reads respect context cancellation only between operations; local
// reads are not interruptible mid-syscall.
type FS struct{}

var _ ContentSource = (*FS)(nil)

// Fetch reads the file at location. A missing file maps to NotFoundError so
// the resolver can treat it as a soft error.
func (s *FS) Fetch(ctx context.Context, location string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &NotFoundError{Location: location}
		}
		return "", fmt.Errorf("read %s: %w", location, err)
	}
	return string(data), nil
}

// Exists reports whether the location is a readable regular file.
func (s *FS) Exists(ctx context.Context, location string) bool {
	if ctx.Err() != nil {
		return false
	}
	info, err := os.Stat(location)
	return err == nil && info.Mode().IsRegular()
}
