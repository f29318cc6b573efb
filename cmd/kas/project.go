// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kasbuild/kas/internal/app/execute"
	"github.com/kasbuild/kas/internal/closure"
	"github.com/kasbuild/kas/internal/config"
	"github.com/kasbuild/kas/internal/gitprovider"
	"github.com/kasbuild/kas/internal/issue"
	"github.com/kasbuild/kas/internal/logging"
	"github.com/kasbuild/kas/internal/pipeline"
	"github.com/kasbuild/kas/pkg/kasfile"
	"github.com/kasbuild/kas/pkg/repos"
)

// project is one resolved kas invocation: the execution context with its
// configuration closed over every needed repository, and the provider used.
type project struct {
	kc       *execute.Context
	provider repos.Provider
	environ  map[string]string
}

// openProject loads settings, installs the logger and resolves the
// configuration file into a closed execution context.
func (a *App) openProject(ctx context.Context, flags *globalFlags, configFile string, overrides map[string]any) (*project, error) {
	settings, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.settingsFile,
		Overrides:      map[string]string{config.KeyWorkDir: flags.workDir},
	})
	if err != nil {
		return nil, err
	}

	if err := logging.Setup(a.stderr, logging.Options{
		Level:  string(settings.LogLevel),
		Format: string(settings.LogFormat),
		Debug:  flags.debug,
	}); err != nil {
		return nil, err
	}

	workDir, err := resolveWorkDir(settings.WorkDir)
	if err != nil {
		return nil, err
	}

	configPath, err := filepath.Abs(configFile)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", configFile, err)
	}
	if _, err := os.Stat(configPath); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load project configuration").
			WithResource(configFile).
			WithIssue(issue.ConfigFileNotFoundId).
			WithSuggestion("Check the path of the configuration file").
			Wrap(err).
			BuildError()
	}
	configDir := filepath.Dir(configPath)
	configRepoPath := gitprovider.RepoRoot(configDir)
	if configRepoPath == "" {
		configRepoPath = configDir
	}

	osEnviron := execute.EnvironMap(a.environ)
	kc := execute.New(execute.Options{
		WorkDir:        workDir,
		OSEnviron:      osEnviron,
		Environ:        execute.DerivedEnviron(osEnviron, a.osRelease),
		Overrides:      overrides,
		ConfigRepoPath: configRepoPath,
		RepoRefDir:     settings.RepoRefDir,
	})

	provider := a.NewProvider(gitprovider.Options{RepoRefDir: kc.RepoRefDir(), Environ: osEnviron})
	engine := &closure.Engine{Resolver: kasfile.NewResolver(configPath), Provider: provider}
	slog.Debug("resolving configuration", "file", configPath, "work_dir", workDir, "config_repo", configRepoPath)
	if _, err := engine.Close(ctx, kc); err != nil {
		return nil, err
	}

	return &project{kc: kc, provider: provider, environ: osEnviron}, nil
}

// deps returns the pipeline collaborators for p. The ssh agent commands are
// added when SSH_PRIVATE_KEY is set.
func (a *App) deps(p *project) pipeline.Deps {
	_, hasKey := p.environ[pipeline.EnvSSHPrivateKey]
	return pipeline.Deps{Provider: p.provider, Runner: a.Runner, UseSSHAgent: hasKey}
}

// runMacro runs m, always releasing its resources.
func runMacro(ctx context.Context, m *pipeline.Macro, kc *execute.Context, skip []string) (err error) {
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return m.Run(ctx, kc, skip)
}

func resolveWorkDir(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}
	return filepath.Abs(dir)
}

// wrapError converts a failure into a ServiceError carrying the rendered
// message and the exit code.
func (a *App) wrapError(err error, verbose bool) error {
	if err == nil {
		return nil
	}
	issueID, code, msg := classifyError(err, verbose)
	svcErr := newServiceError(err, issueID, msg)
	renderServiceError(a.stderr, svcErr, verbose)
	return &ExitError{Code: code, Err: svcErr}
}
