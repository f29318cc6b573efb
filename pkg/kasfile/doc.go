// SPDX-License-Identifier: MPL-2.0

// Package kasfile loads kas configuration fragments and resolves their includes.
//
// A fragment is a mapping written in YAML (.yml, .yaml), JSON with comments
// (.json), TOML (.toml) or CUE (.cue). Its optional header declares the format
// version and the fragments it includes:
//
//	header:
//	  version: 1
//	  includes:
//	    - common.yml                      # relative to this file
//	    - repo: meta-custom               # inside a repository
//	      file: kas/machine.yml
//
// Included fragments are merged before the fragment that includes them, so
// the including file wins. Mappings merge key by key, lists are concatenated
// and every other value is replaced.
//
// An include that points into a repository whose local path is not yet known
// cannot be followed. Resolve reports such repositories as missing and merges
// everything else, so the caller can fetch them and resolve again.
package kasfile
