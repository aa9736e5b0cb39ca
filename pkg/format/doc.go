// SPDX-License-Identifier: MPL-2.0

// Package format compiles resolved documents into the file layouts the
// supported AI tools read: CLAUDE.md plus .claude/ resources, a single
// GitHub Copilot instructions file, or per-block Cursor rules. Formatters
// are pure: they return the files to write and never touch the filesystem.
package format
