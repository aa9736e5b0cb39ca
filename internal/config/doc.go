// SPDX-License-Identifier: MPL-2.0

// Package config loads the prs configuration: a CUE file validated against
// an embedded schema, with environment variable overrides (PRS_*) layered on
// top through viper. Absent file and absent env vars mean defaults; a
// malformed file is an error, never a silent fallback.
package config
