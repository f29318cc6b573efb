// SPDX-License-Identifier: MPL-2.0

// Package gitprovider implements repos.Provider with go-git. Working copies
// are cloned on first fetch (optionally from a local reference clone), fetched
// from origin when the requested refspec is not available, and checked out
// detached at the resolved commit.
package gitprovider
