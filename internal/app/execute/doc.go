// SPDX-License-Identifier: MPL-2.0

// Package execute holds the execution context shared by all pipeline
// commands: the merged configuration, the layered environment and the
// derived build settings (targets, task, machine, distro, layer paths and
// generated file headers).
package execute
