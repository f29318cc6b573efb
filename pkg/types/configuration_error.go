// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the sentinel error wrapped by ConfigurationError.
var ErrConfiguration = errors.New("invalid configuration")

// ConfigurationError reports a configuration value that is structurally
// invalid. It is surfaced where the value is accessed, not when the file is read.
type ConfigurationError struct {
	// Key is the dotted path of the offending value (e.g. "repos.meta-x.layers").
	// It may be a file path when the whole fragment is at fault.
	Key string
	// Reason describes what is wrong with the value.
	Reason string
	// Err is an optional underlying cause (parser errors, for instance).
	Err error
}

// NewConfigurationError creates a ConfigurationError without a cause.
func NewConfigurationError(key, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := e.Reason
	if e.Key != "" {
		msg = e.Key + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes ErrConfiguration and the cause to errors.Is/As.
func (e *ConfigurationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}
