// SPDX-License-Identifier: MPL-2.0

// Package types holds the small value types shared by the kas packages:
// process exit codes and the configuration error that every accessor of the
// merged configuration reports when a value has the wrong shape.
package types
