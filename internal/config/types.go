// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
)

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"

	LogFormatText   LogFormat = "text"
	LogFormatJSON   LogFormat = "json"
	LogFormatLogfmt LogFormat = "logfmt"
)

// ErrInvalidSettings is the sentinel error wrapped by InvalidSettingsError.
var ErrInvalidSettings = errors.New("invalid settings")

type (
	// LogLevel is the minimum level written by the logger.
	LogLevel string

	// LogFormat selects the log record encoding.
	LogFormat string

	// Config holds the kas user settings.
	Config struct {
		// WorkDir holds checked out repositories and the build directory.
		// Empty means the current working directory.
		WorkDir string `json:"work_dir" mapstructure:"work_dir"`
		// RepoRefDir holds reference clones used to speed up cloning.
		RepoRefDir string    `json:"repo_ref_dir" mapstructure:"repo_ref_dir"`
		LogLevel   LogLevel  `json:"log_level" mapstructure:"log_level"`
		LogFormat  LogFormat `json:"log_format" mapstructure:"log_format"`
	}

	// InvalidSettingsError reports a settings value outside its allowed set.
	// It wraps ErrInvalidSettings for errors.Is() compatibility.
	InvalidSettingsError struct {
		Field string
		Value string
	}
)

// DefaultConfig returns the settings used when nothing else is configured.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  LogLevelInfo,
		LogFormat: LogFormatText,
	}
}

func (e *InvalidSettingsError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *InvalidSettingsError) Unwrap() error { return ErrInvalidSettings }

// IsValid reports whether l is a known level.
func (l LogLevel) IsValid() bool {
	return slices.Contains([]LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}, l)
}

// IsValid reports whether f is a known format.
func (f LogFormat) IsValid() bool {
	return slices.Contains([]LogFormat{LogFormatText, LogFormatJSON, LogFormatLogfmt}, f)
}

// Validate checks values that bypass the CUE schema, such as KAS_* variables.
func (c *Config) Validate() error {
	var errs []error
	if !c.LogLevel.IsValid() {
		errs = append(errs, &InvalidSettingsError{Field: "log_level", Value: string(c.LogLevel)})
	}
	if !c.LogFormat.IsValid() {
		errs = append(errs, &InvalidSettingsError{Field: "log_format", Value: string(c.LogFormat)})
	}
	return errors.Join(errs...)
}
