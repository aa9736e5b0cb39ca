// SPDX-License-Identifier: MPL-2.0

package source

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"promptscript-cli/pkg/document"
)

// DefaultExt is the PromptScript source file extension.
const DefaultExt = ".prs"

type (
	// Locator turns logical references into canonical absolute locations.
	//
	// A registry reference @ns/segments[@version] maps to
	// <RegistryRoot>/@ns/<segments>[@version]<Ext>; a relative reference
	// joins against the directory of the referencing document. Both
	// normalize to one canonical string used as the cache/cycle key.
	Locator struct {
		// RegistryRoot is the base the registry layout hangs off: either an
		// http(s) URL or a local directory (useful for vendored registries
		// and tests).
		RegistryRoot string

		// Ext is the source file extension, DefaultExt when empty.
		Ext string
	}

	// LocateError reports a reference that cannot be mapped to a location.
	LocateError struct {
		Ref    document.Reference
		Reason string
	}
)

// Locate maps a reference to its canonical absolute location. baseDir is the
// directory of the referencing document (empty for entry references, which
// then resolve against the working directory).
func (l *Locator) Locate(ref document.Reference, baseDir string) (string, error) {
	switch ref.Kind {
	case document.RegistryRef:
		if l.RegistryRoot == "" {
			return "", &LocateError{Ref: ref, Reason: "no registry root configured"}
		}
		rel := "@" + ref.Namespace + "/" + strings.Join(ref.Segments, "/")
		if ref.Version != "" {
			rel += "@" + ref.Version
		}
		return join(l.RegistryRoot, rel+l.ext()), nil

	case document.RelativeRef:
		return join(baseDir, ref.RelPath), nil

	default:
		return "", &LocateError{Ref: ref, Reason: "unknown reference kind"}
	}
}

// Sibling maps a path relative to an already-located document, used by the
// enrichment post-pass to probe for native resources next to a source file.
func (l *Locator) Sibling(location, rel string) string {
	return join(DirOf(location), rel)
}

func (l *Locator) ext() string {
	if l.Ext == "" {
		return DefaultExt
	}
	return l.Ext
}

// DirOf returns the directory component of a canonical location, handling
// both URL and filesystem forms.
func DirOf(location string) string {
	if isRemote(location) {
		u, err := url.Parse(location)
		if err != nil {
			return location
		}
		u.Path = path.Dir(u.Path)
		return u.String()
	}
	return filepath.Dir(location)
}

// Error implements the error interface for LocateError.
func (e *LocateError) Error() string {
	return fmt.Sprintf("cannot locate %q: %s", e.Ref.Raw, e.Reason)
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// join normalizes base+rel into one canonical location. URL bases keep their
// scheme and host and clean the path; filesystem bases clean lexically and
// force an absolute path so equal documents always share one cache key.
func join(base, rel string) string {
	if isRemote(base) {
		u, err := url.Parse(base)
		if err != nil {
			return base + "/" + rel
		}
		u.Path = path.Clean(path.Join(u.Path, rel))
		return u.String()
	}
	joined := rel
	if base != "" && !filepath.IsAbs(rel) {
		joined = filepath.Join(base, rel)
	}
	abs, err := filepath.Abs(joined)
	if err != nil {
		return filepath.Clean(joined)
	}
	return abs
}
