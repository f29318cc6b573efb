// SPDX-License-Identifier: MPL-2.0

// Package config loads kas user settings using Viper with CUE as the file format.
//
// Settings are read from $XDG_CONFIG_HOME/kas/config.cue (falling back to
// ~/.config/kas/config.cue) or from an explicit file, validated against the
// embedded #Config schema, and overridden by KAS_* environment variables and
// command-line flags. They are unrelated to the project configuration files
// handled by pkg/kasfile.
package config
