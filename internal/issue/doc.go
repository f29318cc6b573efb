// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and the markdown catalog of known
// kas failures (missing configuration files, include cycles, unresolvable
// repositories, provider and tool failures) rendered with glamour.
package issue
