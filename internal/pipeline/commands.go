// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kasbuild/kas/internal/app/execute"
	"github.com/kasbuild/kas/internal/bitbake"
	"github.com/kasbuild/kas/internal/process"
	"github.com/kasbuild/kas/internal/sshagent"
	"github.com/kasbuild/kas/pkg/repos"
	"github.com/kasbuild/kas/pkg/types"
)

// Command names.
const (
	NameSetupDir        = "setup_dir"
	NameSetupHome       = "setup_home"
	NameSetupSSHAgent   = "setup_ssh_agent"
	NameCleanupSSHAgent = "cleanup_ssh_agent"
	NameSetupEnviron    = "setup_environ"
	NameWriteConfig     = "write_config"
	NameReposFetch      = "repos_fetch"
	NameReposCheckout   = "repos_checkout"
	NameBuild           = "build"
	NameShell           = "shell"
)

// EnvSSHPrivateKey holds the key loaded into the ssh agent.
const EnvSSHPrivateKey = "SSH_PRIVATE_KEY"

type (
	// SetupDir creates the work and build directories.
	SetupDir struct{}

	// SetupHome points HOME at a private temporary directory with empty
	// .wgetrc and .netrc files. Close removes the directory.
	SetupHome struct {
		dir string
	}

	// SetupSSHAgent starts an in-process agent holding SSH_PRIVATE_KEY and
	// exports its variables into the context environment.
	SetupSSHAgent struct {
		state *agentState
	}

	// CleanupSSHAgent stops the agent started by its SetupSSHAgent.
	CleanupSSHAgent struct {
		state *agentState
	}

	agentState struct {
		agent *sshagent.Agent
	}

	// SetupEnviron sources the build environment init script.
	SetupEnviron struct {
		Runner process.Runner
	}

	// WriteConfig writes bblayers.conf and local.conf.
	WriteConfig struct{}

	// ReposFetch fetches every configured repository.
	ReposFetch struct {
		Provider repos.Provider
	}

	// ReposCheckout checks out every configured repository.
	ReposCheckout struct {
		Provider repos.Provider
	}

	// Build runs bitbake for the configured task and targets.
	Build struct {
		Runner process.Runner
	}

	// Shell starts an interactive shell (or runs Command) in the build
	// directory with the context environment.
	Shell struct {
		Runner  process.Runner
		Command string
		Stdin   io.Reader
		Stdout  io.Writer
		Stderr  io.Writer
	}
)

func (SetupDir) Name() string { return NameSetupDir }

func (SetupDir) Execute(_ context.Context, kc *execute.Context) error {
	if err := os.MkdirAll(kc.WorkDir(), 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	if err := os.Mkdir(kc.BuildDir(), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create build dir: %w", err)
	}
	return nil
}

func (*SetupHome) Name() string { return NameSetupHome }

func (s *SetupHome) Execute(_ context.Context, kc *execute.Context) error {
	if s.dir == "" {
		dir, err := os.MkdirTemp("", "kas-home-")
		if err != nil {
			return fmt.Errorf("create home dir: %w", err)
		}
		s.dir = dir
	}
	for _, name := range []string{".wgetrc", ".netrc"} {
		if err := os.WriteFile(filepath.Join(s.dir, name), []byte("\n"), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	kc.UpdateEnvironment(map[string]string{"HOME": s.dir})
	return nil
}

// Dir returns the temporary home directory, "" before Execute.
func (s *SetupHome) Dir() string { return s.dir }

// Close removes the temporary home directory.
func (s *SetupHome) Close() error {
	if s.dir == "" {
		return nil
	}
	err := os.RemoveAll(s.dir)
	s.dir = ""
	return err
}

// NewSSHAgentCommands returns a setup/cleanup pair sharing one agent.
func NewSSHAgentCommands() (*SetupSSHAgent, *CleanupSSHAgent) {
	state := &agentState{}
	return &SetupSSHAgent{state: state}, &CleanupSSHAgent{state: state}
}

func (*SetupSSHAgent) Name() string { return NameSetupSSHAgent }

func (s *SetupSSHAgent) Execute(_ context.Context, kc *execute.Context) error {
	key, ok := kc.OSEnviron()[EnvSSHPrivateKey]
	if !ok || key == "" {
		return types.NewConfigurationError(EnvSSHPrivateKey, "not set")
	}
	agent, err := sshagent.Start(key)
	if err != nil {
		return err
	}
	s.state.agent = agent
	kc.UpdateEnvironment(agent.Environ())
	return nil
}

// Close stops the agent when cleanup_ssh_agent did not run.
func (s *SetupSSHAgent) Close() error {
	return s.state.stop()
}

func (*CleanupSSHAgent) Name() string { return NameCleanupSSHAgent }

func (c *CleanupSSHAgent) Execute(_ context.Context, _ *execute.Context) error {
	return c.state.stop()
}

func (s *agentState) stop() error {
	if s.agent == nil {
		return nil
	}
	err := s.agent.Stop()
	s.agent = nil
	return err
}

func (SetupEnviron) Name() string { return NameSetupEnviron }

func (s SetupEnviron) Execute(ctx context.Context, kc *execute.Context) error {
	env, err := bitbake.BuildEnviron(ctx, s.Runner, kc)
	if err != nil {
		return err
	}
	kc.SetBuildEnvironment(env)
	return nil
}

func (WriteConfig) Name() string { return NameWriteConfig }

func (WriteConfig) Execute(_ context.Context, kc *execute.Context) error {
	return bitbake.WriteConfig(kc)
}

func (ReposFetch) Name() string { return NameReposFetch }

func (r ReposFetch) Execute(ctx context.Context, kc *execute.Context) error {
	rs, err := kc.Repos()
	if err != nil {
		return err
	}
	return repos.FetchAll(ctx, r.Provider, rs)
}

func (ReposCheckout) Name() string { return NameReposCheckout }

func (r ReposCheckout) Execute(ctx context.Context, kc *execute.Context) error {
	rs, err := kc.Repos()
	if err != nil {
		return err
	}
	return repos.CheckoutAll(ctx, r.Provider, rs)
}

func (Build) Name() string { return NameBuild }

func (b Build) Execute(ctx context.Context, kc *execute.Context) error {
	return bitbake.Build(ctx, b.Runner, kc)
}

func (Shell) Name() string { return NameShell }

// Execute runs $SHELL (from the process environment, else /bin/sh).
func (s Shell) Execute(ctx context.Context, kc *execute.Context) error {
	env, err := kc.Environment()
	if err != nil {
		return err
	}
	program := kc.OSEnviron()["SHELL"]
	if program == "" {
		program = "/bin/sh"
	}
	var args []string
	if s.Command != "" {
		args = []string{"-c", s.Command}
	}
	return s.Runner.Run(ctx, process.Cmd{
		Program: program,
		Args:    args,
		Dir:     kc.BuildDir(),
		Env:     env,
		Stdin:   s.Stdin,
		Stdout:  s.Stdout,
		Stderr:  s.Stderr,
	})
}
