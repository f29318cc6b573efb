// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"maps"
	"path/filepath"

	"github.com/kasbuild/kas/pkg/repos"
)

// Configuration keys read by the context accessors.
const (
	KeyEnv                = "env"
	KeyTarget             = "target"
	KeyTask               = "task"
	KeyMachine            = "machine"
	KeyDistro             = "distro"
	KeyBBLayersConfHeader = "bblayers_conf_header"
	KeyLocalConfHeader    = "local_conf_header"
	KeyGitlabCIConfig     = "gitlabci_config"
)

type (
	// Options configures a new Context.
	Options struct {
		// WorkDir is the kas work directory. Required.
		WorkDir string
		// OSEnviron is the process environment snapshot. It shadows
		// configuration env values and feeds the KAS_* overrides.
		OSEnviron map[string]string
		// Environ is the explicit overlay, usually from DerivedEnviron.
		Environ map[string]string
		// Overrides are configuration values that win over every loaded
		// fragment (for example target or task from the command line).
		// Nil values are ignored.
		Overrides map[string]any
		// ConfigRepoPath is the directory of the repository holding the
		// root configuration file.
		ConfigRepoPath string
		// RepoRefDir is used when KAS_REPO_REF_DIR is absent from OSEnviron.
		RepoRefDir string
	}

	// Context is the single source of truth for pipeline commands. It is
	// owned by one run and is not safe for concurrent use.
	Context struct {
		workDir        string
		configRepoPath string
		repoRefDir     string
		osEnviron      map[string]string
		environ        map[string]string
		buildEnviron   map[string]string
		overrides      map[string]any
		config         map[string]any
	}
)

// New creates a Context with an empty configuration.
func New(opts Options) *Context {
	overrides := make(map[string]any, len(opts.Overrides))
	for k, v := range opts.Overrides {
		if v != nil {
			overrides[k] = v
		}
	}
	c := &Context{
		workDir:        opts.WorkDir,
		configRepoPath: opts.ConfigRepoPath,
		repoRefDir:     opts.RepoRefDir,
		osEnviron:      cloneOrEmpty(opts.OSEnviron),
		environ:        cloneOrEmpty(opts.Environ),
		buildEnviron:   map[string]string{},
		overrides:      overrides,
	}
	c.SetConfig(nil)
	return c
}

// SetConfig replaces the configuration and re-applies the overrides.
func (c *Context) SetConfig(cfg map[string]any) {
	next := make(map[string]any, len(cfg)+len(c.overrides))
	maps.Copy(next, cfg)
	maps.Copy(next, c.overrides)
	c.config = next
}

// Config returns the current merged configuration. Callers must not modify it.
func (c *Context) Config() map[string]any { return c.config }

// SetConfigRepoPath records where the root configuration's repository lives.
func (c *Context) SetConfigRepoPath(path string) { c.configRepoPath = path }

// ConfigRepoPath returns the root configuration's repository path.
func (c *Context) ConfigRepoPath() string { return c.configRepoPath }

// WorkDir returns the kas work directory.
func (c *Context) WorkDir() string { return c.workDir }

// BuildDir returns <work dir>/build.
func (c *Context) BuildDir() string { return filepath.Join(c.workDir, "build") }

// RepoRefDir returns the directory holding reference clones, "" when unset.
func (c *Context) RepoRefDir() string {
	if dir, ok := c.osEnviron["KAS_REPO_REF_DIR"]; ok {
		return dir
	}
	return c.repoRefDir
}

// OSEnviron returns a copy of the process environment snapshot.
func (c *Context) OSEnviron() map[string]string { return maps.Clone(c.osEnviron) }

// RepoMap builds a descriptor for every configured repository, keyed by the
// name used in the configuration. The result reflects the latest SetConfig.
func (c *Context) RepoMap() (map[string]*repos.Repo, error) {
	return repos.FromConfig(c.config, repos.BuildOptions{
		WorkDir:        c.workDir,
		ConfigRepoPath: c.configRepoPath,
	})
}

// Repos returns the configured repositories sorted by name.
func (c *Context) Repos() ([]*repos.Repo, error) {
	m, err := c.RepoMap()
	if err != nil {
		return nil, err
	}
	return repos.Sorted(m), nil
}

func cloneOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m)
}
