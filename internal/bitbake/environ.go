// SPDX-License-Identifier: MPL-2.0

package bitbake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/kasbuild/kas/internal/app/execute"
	"github.com/kasbuild/kas/internal/process"
	"github.com/kasbuild/kas/pkg/repos"
	"github.com/kasbuild/kas/pkg/types"
)

// InitScripts are the build environment scripts looked for in every repository.
var InitScripts = []string{"oe-init-build-env", "isar-init-build-env"}

// initScriptPATH is the only PATH the init script sees.
const initScriptPATH = "/bin:/usr/bin"

// FindInitScript returns the single repository holding an init script and the
// script name. Zero or several candidates are a configuration error.
func FindInitScript(rs []*repos.Repo) (*repos.Repo, string, error) {
	var (
		found  *repos.Repo
		script string
	)
	for _, r := range rs {
		for _, name := range InitScripts {
			if _, err := os.Stat(filepath.Join(r.Path(), name)); err != nil {
				continue
			}
			if found != nil {
				return nil, "", types.NewConfigurationError(repos.ConfigKey,
					"multiple init scripts found (%s in %s and %s in %s)", script, found.Name(), name, r.Name())
			}
			found, script = r, name
		}
	}
	if found == nil {
		return nil, "", types.NewConfigurationError(repos.ConfigKey,
			"did not find any init-build-env script (%s)", strings.Join(InitScripts, ", "))
	}
	return found, script, nil
}

// BuildEnviron sources the init script for the context's build directory and
// returns the resulting environment, extended for bitbake:
// BB_ENV_EXTRAWHITE gains SSTATE_DIR, DL_DIR, TMPDIR and the configured env
// names, and those variables plus the ssh agent and terminal settings are
// copied from the process environment.
func BuildEnviron(ctx context.Context, runner process.Runner, kc *execute.Context) (map[string]string, error) {
	rs, err := kc.Repos()
	if err != nil {
		return nil, err
	}
	initRepo, script, err := FindInitScript(rs)
	if err != nil {
		return nil, err
	}
	extraNames, err := kc.ConfiguredEnvNames()
	if err != nil {
		return nil, err
	}

	res, err := runner.Capture(ctx, process.Cmd{
		Program: "bash",
		Args:    []string{"-c", sourceCommand(script, kc.BuildDir())},
		Dir:     initRepo.Path(),
		Env:     map[string]string{"PATH": initScriptPATH},
	})
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", script, err)
	}

	env := ParseEnv0(res.Stdout)
	if white, ok := env["BB_ENV_EXTRAWHITE"]; ok {
		env["BB_ENV_EXTRAWHITE"] = strings.TrimSpace(white + " " + strings.Join(extraNames, " "))
	}

	osEnv := kc.OSEnviron()
	passthrough := append([]string{}, execute.BBEnvExtraWhiteAdditionals...)
	passthrough = append(passthrough, "SSH_AGENT_PID", "SSH_AUTH_SOCK", "SHELL", "TERM")
	for _, name := range passthrough {
		if v, ok := osEnv[name]; ok {
			env[name] = v
		}
	}
	return env, nil
}

// ParseEnv0 parses the NUL-separated output of "env -0". Entries without
// "=" are skipped.
func ParseEnv0(out string) map[string]string {
	env := map[string]string{}
	for entry := range strings.SplitSeq(out, "\x00") {
		if k, v, ok := strings.Cut(entry, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}

func sourceCommand(script, buildDir string) string {
	return fmt.Sprintf("source %s %s >/dev/null 2>&1; env -0", quote("./"+script), quote(buildDir))
}

// quote renders s as a single bash word.
func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		// Only strings with NUL bytes cannot be quoted; paths never contain one.
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return q
}
