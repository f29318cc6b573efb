// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/kasbuild/kas/pkg/types"
)

// Defaults used when neither the environment nor the configuration set a value.
const (
	DefaultTarget  = "core-image-minimal"
	DefaultTask    = "build"
	DefaultMachine = "qemu"
	DefaultDistro  = "poky"
)

// multiconfigPrefixes introduce a multiconfig target: <prefix><name>:<target>.
var multiconfigPrefixes = []string{"multiconfig:", "mc:"}

// Targets returns the bitbake targets. A non-empty KAS_TARGET (split on
// whitespace) wins over the configuration; a single string target becomes
// a one-element list.
func (c *Context) Targets() ([]string, error) {
	if fromEnv := strings.Fields(c.osEnviron["KAS_TARGET"]); len(fromEnv) > 0 {
		return fromEnv, nil
	}

	raw, ok := c.config[KeyTarget]
	if !ok || raw == nil {
		return []string{DefaultTarget}, nil
	}
	switch tv := raw.(type) {
	case string:
		return []string{tv}, nil
	case []string:
		return slices.Clone(tv), nil
	case []any:
		targets := make([]string, 0, len(tv))
		for i, item := range tv {
			s, ok := item.(string)
			if !ok {
				return nil, types.NewConfigurationError(fmt.Sprintf("%s[%d]", KeyTarget, i), "expected a string, got %T", item)
			}
			targets = append(targets, s)
		}
		return targets, nil
	default:
		return nil, types.NewConfigurationError(KeyTarget, "expected a string or a list of strings, got %T", raw)
	}
}

// Task returns KAS_TASK, else the configured task, else "build".
func (c *Context) Task() string { return c.setting("KAS_TASK", KeyTask, DefaultTask) }

// Machine returns KAS_MACHINE, else the configured machine, else "qemu".
func (c *Context) Machine() string { return c.setting("KAS_MACHINE", KeyMachine, DefaultMachine) }

// Distro returns KAS_DISTRO, else the configured distro, else "poky".
func (c *Context) Distro() string { return c.setting("KAS_DISTRO", KeyDistro, DefaultDistro) }

// Multiconfig returns the distinct multiconfig names used by the targets,
// sorted and space-separated.
func (c *Context) Multiconfig() (string, error) {
	targets, err := c.Targets()
	if err != nil {
		return "", err
	}
	var names []string
	for _, target := range targets {
		name, ok, err := multiconfigName(target)
		if err != nil {
			return "", err
		}
		if ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return strings.Join(slices.Compact(names), " "), nil
}

// BBLayersConfHeader renders the bblayers_conf_header section.
func (c *Context) BBLayersConfHeader() (string, error) {
	return c.ConfHeader(KeyBBLayersConfHeader)
}

// LocalConfHeader renders the local_conf_header section.
func (c *Context) LocalConfHeader() (string, error) {
	return c.ConfHeader(KeyLocalConfHeader)
}

// ConfHeader renders a configuration mapping as "# <key>\n<value>\n" blocks
// sorted by key. An absent section renders as "".
func (c *Context) ConfHeader(section string) (string, error) {
	raw, ok := c.config[section]
	if !ok || raw == nil {
		return "", nil
	}
	entries, ok := raw.(map[string]any)
	if !ok {
		return "", types.NewConfigurationError(section, "expected a mapping, got %T", raw)
	}
	var b strings.Builder
	for _, key := range slices.Sorted(maps.Keys(entries)) {
		fmt.Fprintf(&b, "# %s\n%s\n", key, stringify(entries[key]))
	}
	return b.String(), nil
}

// GitlabCIConfig returns the raw gitlabci_config value, "" when absent.
func (c *Context) GitlabCIConfig() string {
	return stringify(c.config[KeyGitlabCIConfig])
}

func (c *Context) setting(envName, key, fallback string) string {
	if v, ok := c.osEnviron[envName]; ok {
		return v
	}
	if v, ok := c.config[key]; ok && v != nil {
		return stringify(v)
	}
	return fallback
}

func multiconfigName(target string) (string, bool, error) {
	for _, prefix := range multiconfigPrefixes {
		rest, ok := strings.CutPrefix(target, prefix)
		if !ok {
			continue
		}
		name, inner, found := strings.Cut(rest, ":")
		if !found || name == "" || inner == "" {
			return "", false, types.NewConfigurationError(KeyTarget,
				"malformed multiconfig target %q (want %s<name>:<target>)", target, prefix)
		}
		return name, true, nil
	}
	return "", false, nil
}

func stringify(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	default:
		return fmt.Sprint(tv)
	}
}
