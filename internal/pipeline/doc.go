// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs kas actions as a Macro: an ordered list of named
// Commands executed against one execute.Context. A skip list omits commands
// by name, and the first failing command aborts the run.
package pipeline
