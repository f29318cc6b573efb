// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"io"

	"github.com/kasbuild/kas/internal/process"
	"github.com/kasbuild/kas/pkg/repos"
)

// Deps are the collaborators shared by composed macros.
type Deps struct {
	Provider repos.Provider
	Runner   process.Runner
	// UseSSHAgent adds setup_ssh_agent and cleanup_ssh_agent, usually when
	// SSH_PRIVATE_KEY is present in the process environment.
	UseSSHAgent bool
}

// prepare returns setup_dir, the optional setup_ssh_agent, repos_fetch,
// repos_checkout, setup_environ and write_config, plus the cleanup command
// the caller must append (nil without an agent).
func prepare(d Deps) (*Macro, *CleanupSSHAgent) {
	m := NewMacro(SetupDir{})
	var cleanup *CleanupSSHAgent
	if d.UseSSHAgent {
		var setup *SetupSSHAgent
		setup, cleanup = NewSSHAgentCommands()
		m.Add(setup)
	}
	m.Add(ReposFetch{Provider: d.Provider})
	m.Add(ReposCheckout{Provider: d.Provider})
	m.Add(SetupEnviron{Runner: d.Runner})
	m.Add(WriteConfig{})
	return m, cleanup
}

// CheckoutMacro prepares the work directory, fetches and checks out every
// repository, computes the build environment and writes the bitbake
// configuration.
func CheckoutMacro(d Deps) *Macro {
	m, cleanup := prepare(d)
	if cleanup != nil {
		m.Add(cleanup)
	}
	return m
}

// BuildMacro is the checkout sequence followed by an isolated home and the
// bitbake invocation. The ssh agent stays up until the build finished.
func BuildMacro(d Deps) *Macro {
	m, cleanup := prepare(d)
	m.Add(&SetupHome{})
	m.Add(Build{Runner: d.Runner})
	if cleanup != nil {
		m.Add(cleanup)
	}
	return m
}

// ShellMacro is the checkout sequence followed by an isolated home and a
// shell in the build directory.
func ShellMacro(d Deps, command string, stdin io.Reader, stdout, stderr io.Writer) *Macro {
	m, cleanup := prepare(d)
	m.Add(&SetupHome{})
	m.Add(Shell{Runner: d.Runner, Command: command, Stdin: stdin, Stdout: stdout, Stderr: stderr})
	if cleanup != nil {
		m.Add(cleanup)
	}
	return m
}
