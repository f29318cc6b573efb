// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/kasbuild/kas/internal/closure"
	"github.com/kasbuild/kas/internal/issue"
	"github.com/kasbuild/kas/internal/pipeline"
	"github.com/kasbuild/kas/internal/process"
	"github.com/kasbuild/kas/pkg/kasfile"
	"github.com/kasbuild/kas/pkg/repos"
	"github.com/kasbuild/kas/pkg/types"
)

// classifyError maps a failure to an issue catalog ID and the exit code for
// the process, and returns a styled message for CLI rendering.
func classifyError(err error, verbose bool) (issueID issue.Id, code types.ExitCode, styledMsg string) {
	code = 1

	var (
		ae      *issue.ActionableError
		exitErr *process.ExitError
	)
	switch {
	case errors.As(err, &ae) && ae.Issue != 0:
		issueID = ae.Issue
	case errors.Is(err, closure.ErrUnresolvableDependency):
		issueID = issue.UnresolvableDependencyId
	case errors.Is(err, repos.ErrProviderFailure):
		issueID = issue.RepoProviderFailedId
	case errors.As(err, &exitErr):
		issueID = issue.ExternalToolFailedId
		code = exitErr.Code.OrFailure()
	case errors.Is(err, os.ErrNotExist) && errors.Is(err, types.ErrConfiguration):
		issueID = issue.ConfigFileNotFoundId
	case errors.Is(err, types.ErrConfiguration):
		issueID = configurationIssue(err)
	}

	return issueID, code, fmt.Sprintf("%s %s\n", ErrorStyle.Render("ERROR:"), describe(err, verbose))
}

// configurationIssue separates include cycles and missing init scripts from
// other configuration errors.
func configurationIssue(err error) issue.Id {
	var (
		cfgErr *types.ConfigurationError
		cmdErr *pipeline.CommandError
	)
	switch {
	case errors.Is(err, kasfile.ErrIncludeCycle):
		return issue.IncludeCycleId
	case errors.As(err, &cmdErr) && cmdErr.Command == pipeline.NameSetupEnviron &&
		errors.As(err, &cfgErr) && cfgErr.Key == repos.ConfigKey:
		return issue.InitScriptNotFoundId
	default:
		return issue.ConfigurationInvalidId
	}
}

// describe formats an error for user display, prefixing the failing
// pipeline command when there is one.
func describe(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	var cmdErr *pipeline.CommandError
	if errors.As(err, &cmdErr) {
		return CmdStyle.Render(cmdErr.Command) + ": " + cmdErr.Err.Error()
	}
	return err.Error()
}
