// SPDX-License-Identifier: MPL-2.0

// Package issue holds the catalog of user-facing failures and the error
// context machinery the CLI uses to turn them into actionable messages.
package issue
