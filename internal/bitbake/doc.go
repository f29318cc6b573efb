// SPDX-License-Identifier: MPL-2.0

// Package bitbake generates the build directory configuration
// (conf/bblayers.conf and conf/local.conf), captures the environment set up by
// the OE or Isar init script, and invokes bitbake.
package bitbake
