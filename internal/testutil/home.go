// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

// SetConfigHome points HOME and XDG_CONFIG_HOME at dir (the latter at
// dir/.config) so settings lookups never see the developer's own files.
// It returns a cleanup function restoring both variables.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    t.Cleanup(testutil.SetConfigHome(t, t.TempDir()))
//	    // Test code...
//	}
func SetConfigHome(t testing.TB, dir string) func() {
	t.Helper()

	restoreHome := MustSetenv(t, "HOME", dir)
	restoreXDG := MustSetenv(t, "XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	return func() {
		restoreXDG()
		restoreHome()
	}
}
