// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/kasbuild/kas/internal/app/execute"
	"github.com/kasbuild/kas/internal/config"
	"github.com/kasbuild/kas/internal/gitprovider"
	"github.com/kasbuild/kas/internal/process"
	"github.com/kasbuild/kas/pkg/repos"
)

type (
	// App wires CLI services and shared dependencies. All Cobra handlers
	// receive an App and delegate to its collaborators.
	App struct {
		Config      ConfigProvider
		Runner      process.Runner
		NewProvider ProviderFactory
		stdin       io.Reader
		stdout      io.Writer
		stderr      io.Writer
		environ     []string
		osRelease   string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config      ConfigProvider
		Runner      process.Runner
		NewProvider ProviderFactory
		Stdin       io.Reader
		Stdout      io.Writer
		Stderr      io.Writer
		// Environ is the process environment snapshot; nil means os.Environ().
		Environ []string
		// OSReleasePath locates the host os-release file for locale defaults.
		OSReleasePath string
	}

	// ConfigProvider loads user settings using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// ProviderFactory creates the repository provider for one run.
	ProviderFactory func(opts gitprovider.Options) repos.Provider
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Runner == nil {
		deps.Runner = process.Exec{}
	}
	if deps.NewProvider == nil {
		deps.NewProvider = func(opts gitprovider.Options) repos.Provider { return gitprovider.New(opts) }
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Environ == nil {
		deps.Environ = os.Environ()
	}
	if deps.OSReleasePath == "" {
		deps.OSReleasePath = execute.DefaultOSReleasePath
	}

	return &App{
		Config:      deps.Config,
		Runner:      deps.Runner,
		NewProvider: deps.NewProvider,
		stdin:       deps.Stdin,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
		environ:     deps.Environ,
		osRelease:   deps.OSReleasePath,
	}
}
