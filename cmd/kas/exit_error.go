// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/kasbuild/kas/pkg/types"
)

// ExitError is what a subcommand returns once its failure has been printed.
// Code is the exit status of kas: the exit code of bitbake, the init script
// or the shell when one of them failed, 1 for every other failure.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the underlying message, or the bare status without one.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("kas exited with status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCode is the process status for the error returned by the command tree.
// Errors that never went through a subcommand, such as flag parsing
// failures, exit with 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return int(exitErr.Code.OrFailure())
	}
	return 1
}
