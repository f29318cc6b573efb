// SPDX-License-Identifier: MPL-2.0

// Package repos models the source repositories a kas configuration is made of.
//
// A Repo is built from one entry of the merged configuration's "repos"
// mapping and is never mutated afterwards. When the configuration changes the
// descriptors are rebuilt from scratch with FromConfig. A Repo without a url
// is the configuration's own repository: it points at the directory holding
// the configuration file and every version-control operation on it is a no-op.
//
// The Provider interface is the capability that brings a Repo onto disk. It
// is implemented by internal/gitprovider and consumed by both the closure
// engine and the repos_fetch/repos_checkout pipeline commands.
package repos
