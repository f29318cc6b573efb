// SPDX-License-Identifier: MPL-2.0

package repos

import (
	"fmt"
	"maps"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kasbuild/kas/pkg/types"
)

// ConfigKey is the top-level configuration key holding the repository map.
const ConfigKey = "repos"

// disabledLayerValues are the (lower-cased) layer flags that exclude a layer.
var disabledLayerValues = []string{"disabled", "excluded", "n", "no", "0", "false"}

type (
	// Repo describes one source repository. Fields are unexported so a
	// descriptor stays immutable once built; use the accessors.
	Repo struct {
		name       string
		url        string
		path       string
		refspec    string
		layerNames []string
		noVCS      bool
	}

	// BuildOptions carries the directories FromConfig resolves paths against.
	BuildOptions struct {
		// WorkDir is the kas work directory; fetched repos default to <WorkDir>/<name>.
		WorkDir string
		// ConfigRepoPath is the repository (or directory) holding the root
		// configuration file. Repos without a url point here.
		ConfigRepoPath string
	}
)

// New creates a descriptor for a repository that is fetched from url.
func New(name, url, path, refspec string, layerNames []string) *Repo {
	return &Repo{
		name:       name,
		url:        url,
		path:       path,
		refspec:    refspec,
		layerNames: slices.Clone(layerNames),
	}
}

// NewLocal creates a descriptor for a repository that already lives at path
// and must never be fetched or checked out.
func NewLocal(name, path string, layerNames []string) *Repo {
	return &Repo{
		name:       name,
		url:        path,
		path:       path,
		layerNames: slices.Clone(layerNames),
		noVCS:      true,
	}
}

// Name returns the key of the repository in the configuration's repos map.
func (r *Repo) Name() string { return r.name }

// URL returns the remote location. For local repositories this is the path.
func (r *Repo) URL() string { return r.url }

// Path returns the local working copy path.
func (r *Repo) Path() string { return r.path }

// Refspec returns the desired revision, or "" to keep whatever is checked out.
func (r *Repo) Refspec() string { return r.refspec }

// OperationsDisabled reports whether fetch and checkout are no-ops for this repo.
func (r *Repo) OperationsDisabled() bool { return r.noVCS }

// LayerNames returns the enabled layer paths relative to the repository root.
func (r *Repo) LayerNames() []string { return slices.Clone(r.layerNames) }

// Layers returns the absolute layer paths the repository contributes.
// A repository without layer entries is itself a single layer.
func (r *Repo) Layers() []string {
	if len(r.layerNames) == 0 {
		return []string{r.path}
	}
	layers := make([]string, 0, len(r.layerNames))
	for _, l := range r.layerNames {
		layers = append(layers, filepath.Join(r.path, l))
	}
	return layers
}

// QualifiedName flattens the url into a single path component
// (e.g. "github.com.foo.bar.git"), used to find reference clones.
func (r *Repo) QualifiedName() string {
	netloc, path := "", r.url
	if u, err := url.Parse(r.url); err == nil && u.Scheme != "" {
		netloc = u.Host
		if u.User != nil {
			netloc = u.User.String() + "@" + netloc
		}
		path = u.Path
	}
	return strings.NewReplacer("@", ".", ":", ".", "/", ".", "*", ".").Replace(netloc + path)
}

// String returns a short human-readable form used in log messages.
func (r *Repo) String() string {
	if r.noVCS {
		return fmt.Sprintf("%s (%s)", r.name, r.path)
	}
	if r.refspec == "" {
		return fmt.Sprintf("%s (%s)", r.name, r.url)
	}
	return fmt.Sprintf("%s (%s@%s)", r.name, r.url, r.refspec)
}

// FromConfig builds a descriptor for every entry of cfg["repos"].
// A missing repos key yields an empty map.
func FromConfig(cfg map[string]any, opts BuildOptions) (map[string]*Repo, error) {
	raw, ok := cfg[ConfigKey]
	if !ok || raw == nil {
		return map[string]*Repo{}, nil
	}
	entries, ok := raw.(map[string]any)
	if !ok {
		return nil, types.NewConfigurationError(ConfigKey, "expected a mapping, got %T", raw)
	}

	result := make(map[string]*Repo, len(entries))
	for key, value := range entries {
		repo, err := fromEntry(key, value, opts)
		if err != nil {
			return nil, err
		}
		result[key] = repo
	}
	return result, nil
}

// Sorted returns the descriptors ordered by name.
func Sorted(m map[string]*Repo) []*Repo {
	names := slices.Sorted(maps.Keys(m))
	out := make([]*Repo, 0, len(names))
	for _, n := range names {
		out = append(out, m[n])
	}
	return out
}

// Paths maps every repository name to its local path.
func Paths(m map[string]*Repo) map[string]string {
	paths := make(map[string]string, len(m))
	for name, r := range m {
		paths[name] = r.path
	}
	return paths
}

// EnabledLayers filters a layer mapping down to the names whose flag is not
// one of the disabled sentinels, sorted by name.
func EnabledLayers(key string, raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	layers, ok := raw.(map[string]any)
	if !ok {
		return nil, types.NewConfigurationError(key, "expected a mapping of layer paths, got %T", raw)
	}
	var enabled []string
	for name, flag := range layers {
		if flag != nil && slices.Contains(disabledLayerValues, strings.ToLower(fmt.Sprint(flag))) {
			continue
		}
		enabled = append(enabled, name)
	}
	slices.Sort(enabled)
	return enabled, nil
}

func fromEntry(key string, value any, opts BuildOptions) (*Repo, error) {
	prefix := ConfigKey + "." + key
	if value == nil {
		value = map[string]any{}
	}
	attrs, ok := value.(map[string]any)
	if !ok {
		return nil, types.NewConfigurationError(prefix, "expected a mapping, got %T", value)
	}

	layers, err := EnabledLayers(prefix+".layers", attrs["layers"])
	if err != nil {
		return nil, err
	}
	remote, err := scalar(prefix+".url", attrs["url"])
	if err != nil {
		return nil, err
	}
	dirName, err := scalar(prefix+".name", attrs["name"])
	if err != nil {
		return nil, err
	}
	if dirName == "" {
		dirName = key
	}
	refspec, err := scalar(prefix+".refspec", attrs["refspec"])
	if err != nil {
		return nil, err
	}
	path, err := scalar(prefix+".path", attrs["path"])
	if err != nil {
		return nil, err
	}

	if remote == "" {
		switch {
		case path == "":
			path = opts.ConfigRepoPath
		case !filepath.IsAbs(path):
			path = filepath.Join(opts.ConfigRepoPath, path)
		}
		return NewLocal(key, path, layers), nil
	}

	switch {
	case path == "":
		path = filepath.Join(opts.WorkDir, dirName)
	case !filepath.IsAbs(path):
		path = filepath.Join(opts.WorkDir, path)
	}
	return New(key, remote, path, refspec, layers), nil
}

// scalar renders a scalar configuration value as a string; nil is "".
func scalar(key string, v any) (string, error) {
	switch tv := v.(type) {
	case nil:
		return "", nil
	case string:
		return tv, nil
	case map[string]any, []any:
		return "", types.NewConfigurationError(key, "expected a scalar, got %T", v)
	default:
		return fmt.Sprint(tv), nil
	}
}
