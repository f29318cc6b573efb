// SPDX-License-Identifier: MPL-2.0

// Package cueutil compiles CUE documents into generic maps, optionally
// unified with an embedded schema definition, and formats CUE errors with
// JSON-path style locations.
//
//	doc, err := cueutil.DecodeMap(data,
//	    cueutil.WithFilename("config.cue"),
//	    cueutil.WithSchema(schemaSource, "#Config"),
//	    cueutil.WithConcrete(false),
//	)
package cueutil
