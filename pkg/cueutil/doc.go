// SPDX-License-Identifier: MPL-2.0

// Package cueutil wraps the CUE parse flow the configuration layer relies
// on: compile an embedded schema, compile the user's file, unify the two,
// validate, and decode into a Go struct. Validation failures come back with
// the JSON path of the offending field so the message points at the exact
// config key.
//
// # Usage
//
//	//go:embed config_schema.cue
//	var schemaBytes []byte
//
//	cfg, err := cueutil.Decode[Config](
//	    schemaBytes,
//	    userFileBytes,
//	    "#Config",
//	    cueutil.WithFilename("config.cue"),
//	)
package cueutil
