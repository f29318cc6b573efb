// SPDX-License-Identifier: MPL-2.0

package repos

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/kasbuild/kas/pkg/types"
)

func TestEnabledLayers_FiltersDisabledSentinels(t *testing.T) {
	t.Parallel()

	got, err := EnabledLayers("layers", map[string]any{"a": "enabled", "b": "disabled", "c": "0"})
	if err != nil {
		t.Fatalf("EnabledLayers() error = %v", err)
	}
	if !slices.Equal(got, []string{"a"}) {
		t.Errorf("EnabledLayers() = %v, want [a]", got)
	}
}

func TestEnabledLayers_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		flag    any
		enabled bool
	}{
		{name: "empty string", flag: "", enabled: true},
		{name: "null", flag: nil, enabled: true},
		{name: "disabled", flag: "disabled", enabled: false},
		{name: "excluded upper case", flag: "EXCLUDED", enabled: false},
		{name: "n", flag: "n", enabled: false},
		{name: "No", flag: "No", enabled: false},
		{name: "integer zero", flag: 0, enabled: false},
		{name: "bool false", flag: false, enabled: false},
		{name: "string False", flag: "False", enabled: false},
		{name: "integer one", flag: 1, enabled: true},
		{name: "bool true", flag: true, enabled: true},
		{name: "arbitrary", flag: "yes please", enabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := EnabledLayers("layers", map[string]any{"meta": tt.flag})
			if err != nil {
				t.Fatalf("EnabledLayers() error = %v", err)
			}
			if (len(got) == 1) != tt.enabled {
				t.Errorf("EnabledLayers(%v) = %v, want enabled=%v", tt.flag, got, tt.enabled)
			}
		})
	}
}

func TestEnabledLayers_RejectsList(t *testing.T) {
	t.Parallel()

	_, err := EnabledLayers("repos.x.layers", []any{"meta"})
	if !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("EnabledLayers(list) error = %v, want ErrConfiguration", err)
	}
}

func TestFromConfig_SelfAndRemote(t *testing.T) {
	t.Parallel()

	opts := BuildOptions{WorkDir: "/work", ConfigRepoPath: "/src/project"}
	cfg := map[string]any{
		"repos": map[string]any{
			"self": map[string]any{},
			"meta-x": map[string]any{
				"url":     "https://example.com/meta-x.git",
				"refspec": "main",
				"layers":  map[string]any{"layers/meta-x": ""},
			},
		},
	}

	got, err := FromConfig(cfg, opts)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FromConfig() returned %d repos, want 2", len(got))
	}

	self := got["self"]
	if !self.OperationsDisabled() {
		t.Error("self repo must have operations disabled")
	}
	if self.Path() != "/src/project" || self.URL() != "/src/project" {
		t.Errorf("self path/url = %q/%q, want /src/project", self.Path(), self.URL())
	}
	if !slices.Equal(self.Layers(), []string{"/src/project"}) {
		t.Errorf("self layers = %v, want repo root", self.Layers())
	}

	mx := got["meta-x"]
	if mx.OperationsDisabled() {
		t.Error("meta-x must not have operations disabled")
	}
	if mx.Path() != filepath.Join("/work", "meta-x") {
		t.Errorf("meta-x path = %q, want /work/meta-x", mx.Path())
	}
	if mx.Refspec() != "main" {
		t.Errorf("meta-x refspec = %q, want main", mx.Refspec())
	}
	if want := []string{"/work/meta-x/layers/meta-x"}; !slices.Equal(mx.Layers(), want) {
		t.Errorf("meta-x layers = %v, want %v", mx.Layers(), want)
	}
}

func TestFromConfig_PathAndName(t *testing.T) {
	t.Parallel()

	opts := BuildOptions{WorkDir: "/work", ConfigRepoPath: "/src/project"}
	tests := []struct {
		name     string
		entry    map[string]any
		wantPath string
	}{
		{name: "name overrides dir", entry: map[string]any{"url": "u", "name": "poky"}, wantPath: "/work/poky"},
		{name: "absolute path", entry: map[string]any{"url": "u", "path": "/opt/poky"}, wantPath: "/opt/poky"},
		{name: "relative path joins work dir", entry: map[string]any{"url": "u", "path": "sub/poky"}, wantPath: "/work/sub/poky"},
		{name: "local relative path joins config repo", entry: map[string]any{"path": "meta"}, wantPath: "/src/project/meta"},
		{name: "local absolute path", entry: map[string]any{"path": "/elsewhere"}, wantPath: "/elsewhere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := FromConfig(map[string]any{"repos": map[string]any{"r": tt.entry}}, opts)
			if err != nil {
				t.Fatalf("FromConfig() error = %v", err)
			}
			if p := got["r"].Path(); p != tt.wantPath {
				t.Errorf("Path() = %q, want %q", p, tt.wantPath)
			}
		})
	}
}

func TestFromConfig_NullEntryIsLocal(t *testing.T) {
	t.Parallel()

	got, err := FromConfig(map[string]any{"repos": map[string]any{"self": nil}}, BuildOptions{ConfigRepoPath: "/cfg"})
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if !got["self"].OperationsDisabled() || got["self"].Path() != "/cfg" {
		t.Errorf("null entry = %v, want local repo at /cfg", got["self"])
	}
}

func TestFromConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  map[string]any
	}{
		{name: "repos not a mapping", cfg: map[string]any{"repos": []any{"a"}}},
		{name: "entry not a mapping", cfg: map[string]any{"repos": map[string]any{"a": "url"}}},
		{name: "url is a mapping", cfg: map[string]any{"repos": map[string]any{"a": map[string]any{"url": map[string]any{}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := FromConfig(tt.cfg, BuildOptions{}); !errors.Is(err, types.ErrConfiguration) {
				t.Errorf("FromConfig() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestFromConfig_NoRepos(t *testing.T) {
	t.Parallel()

	got, err := FromConfig(map[string]any{"machine": "qemu"}, BuildOptions{})
	if err != nil || len(got) != 0 {
		t.Errorf("FromConfig() = %v, %v; want empty map", got, err)
	}
}

func TestQualifiedName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{url: "https://github.com/foo/bar.git", want: "github.com.foo.bar.git"},
		{url: "ssh://git@example.com:2222/meta/x", want: "git.example.com.2222.meta.x"},
		{url: "git@github.com:foo/bar.git", want: "git.github.com.foo.bar.git"},
		{url: "/srv/git/poky", want: ".srv.git.poky"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			r := New("r", tt.url, "/w/r", "", nil)
			if got := r.QualifiedName(); got != tt.want {
				t.Errorf("QualifiedName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSortedAndPaths(t *testing.T) {
	t.Parallel()

	m := map[string]*Repo{
		"b": New("b", "u", "/w/b", "", nil),
		"a": NewLocal("a", "/cfg", nil),
	}
	sorted := Sorted(m)
	if len(sorted) != 2 || sorted[0].Name() != "a" || sorted[1].Name() != "b" {
		t.Errorf("Sorted() = %v, want [a b]", sorted)
	}
	paths := Paths(m)
	if paths["a"] != "/cfg" || paths["b"] != "/w/b" {
		t.Errorf("Paths() = %v", paths)
	}
}
