// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/kasbuild/kas/pkg/types"
)

// DefaultOSReleasePath is where the host distribution is identified.
const DefaultOSReleasePath = "/etc/os-release"

var (
	// BBEnvExtraWhiteAdditionals are always added to BB_ENV_EXTRAWHITE and
	// reported by ConfiguredEnvNames.
	BBEnvExtraWhiteAdditionals = []string{"SSTATE_DIR", "DL_DIR", "TMPDIR"}

	proxyVarNames = []string{
		"http_proxy", "https_proxy", "ftp_proxy", "no_proxy",
		"HTTP_PROXY", "HTTPS_PROXY", "FTP_PROXY", "NO_PROXY",
	}

	miscVarNames = append([]string{
		"SSH_AGENT_PID", "SSH_AUTH_SOCK", "SHELL", "TERM", "GIT_PROXY_COMMAND",
	}, BBEnvExtraWhiteAdditionals...)
)

// Environment computes the environment for external programs. Precedence,
// lowest to highest:
//
//  1. Build overlay (SetBuildEnvironment)
//  2. Configuration env entries, each replaced by the process environment
//     variable of the same name when that is set
//  3. Explicit overlay (Options.Environ and UpdateEnvironment)
func (c *Context) Environment() (map[string]string, error) {
	cfgEnv, err := c.configEnv()
	if err != nil {
		return nil, err
	}

	env := maps.Clone(c.buildEnviron)
	for name, value := range cfgEnv {
		if osValue, ok := c.osEnviron[name]; ok {
			value = osValue
		}
		env[name] = value
	}
	maps.Copy(env, c.environ)
	return env, nil
}

// ConfiguredEnvNames returns the configuration env names followed by
// BBEnvExtraWhiteAdditionals. The configured names are sorted.
func (c *Context) ConfiguredEnvNames() ([]string, error) {
	cfgEnv, err := c.configEnv()
	if err != nil {
		return nil, err
	}
	names := slices.Sorted(maps.Keys(cfgEnv))
	return append(names, BBEnvExtraWhiteAdditionals...), nil
}

// SetBuildEnvironment replaces the build overlay.
func (c *Context) SetBuildEnvironment(env map[string]string) {
	c.buildEnviron = cloneOrEmpty(env)
}

// UpdateEnvironment adds env to the explicit overlay, replacing existing names.
func (c *Context) UpdateEnvironment(env map[string]string) {
	maps.Copy(c.environ, env)
}

func (c *Context) configEnv() (map[string]string, error) {
	raw, ok := c.config[KeyEnv]
	if !ok || raw == nil {
		return map[string]string{}, nil
	}
	entries, ok := raw.(map[string]any)
	if !ok {
		return nil, types.NewConfigurationError(KeyEnv, "expected a mapping, got %T", raw)
	}
	out := make(map[string]string, len(entries))
	for name, v := range entries {
		switch tv := v.(type) {
		case nil:
			out[name] = ""
		case map[string]any, []any:
			return nil, types.NewConfigurationError(KeyEnv+"."+name, "expected a scalar, got %T", v)
		default:
			out[name] = fmt.Sprint(tv)
		}
	}
	return out, nil
}

// DerivedEnviron builds the explicit overlay for a new Context: locale
// settings for the host distribution plus the proxy and miscellaneous
// variables present in osEnviron.
func DerivedEnviron(osEnviron map[string]string, osReleasePath string) map[string]string {
	env := LocaleEnviron(hostDistroID(osReleasePath))
	maps.Copy(env, passthrough(osEnviron, proxyVarNames))
	maps.Copy(env, passthrough(osEnviron, miscVarNames))
	return env
}

// LocaleEnviron returns the locale variables for a distribution family.
// Unknown families get no locale settings and a warning.
func LocaleEnviron(distroID string) map[string]string {
	switch strings.ToLower(distroID) {
	case "fedora", "suse", "opensuse":
		return map[string]string{"LC_ALL": "en_US.utf8", "LANG": "en_US.utf8", "LANGUAGE": "en_US"}
	case "debian", "ubuntu":
		return map[string]string{"LC_ALL": "en_US.UTF-8", "LANG": "en_US.UTF-8", "LANGUAGE": "en_US:en"}
	default:
		slog.Warn("not a supported distro, no default locales set", "distro", distroID)
		return map[string]string{}
	}
}

// EnvironMap converts os.Environ-style "KEY=VALUE" entries into a map.
// Later duplicates win.
func EnvironMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			out[k] = v
		}
	}
	return out
}

// EnvironList renders env as sorted "KEY=VALUE" entries for exec.Cmd.Env.
func EnvironList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}

func passthrough(osEnviron map[string]string, names []string) map[string]string {
	out := map[string]string{}
	for _, name := range names {
		if v, ok := osEnviron[name]; ok {
			out[name] = v
		}
	}
	return out
}

// hostDistroID returns ID_LIKE (its first word) or ID from an os-release
// file, "" when it cannot be read.
func hostDistroID(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("cannot read os-release", "path", path, "error", err)
		return ""
	}
	fields := parseOSRelease(data)
	if like := strings.Fields(fields["ID_LIKE"]); len(like) > 0 {
		return like[0]
	}
	return fields["ID"]
}
