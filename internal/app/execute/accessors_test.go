// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kasbuild/kas/pkg/types"
)

func TestTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		osEnv   map[string]string
		cfg     map[string]any
		want    []string
		wantErr bool
	}{
		{name: "default", want: []string{DefaultTarget}},
		{name: "string promoted", cfg: map[string]any{"target": "core-image-sato"}, want: []string{"core-image-sato"}},
		{name: "list", cfg: map[string]any{"target": []any{"a", "b"}}, want: []string{"a", "b"}},
		{
			name:  "environment wins",
			osEnv: map[string]string{"KAS_TARGET": " x  y "},
			cfg:   map[string]any{"target": "core-image-sato"},
			want:  []string{"x", "y"},
		},
		{
			name:  "blank environment ignored",
			osEnv: map[string]string{"KAS_TARGET": "   "},
			cfg:   map[string]any{"target": "core-image-sato"},
			want:  []string{"core-image-sato"},
		},
		{name: "non-string item", cfg: map[string]any{"target": []any{"a", 3}}, wantErr: true},
		{name: "mapping", cfg: map[string]any{"target": map[string]any{"a": 1}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := New(Options{WorkDir: "/work", OSEnviron: tt.osEnv})
			c.SetConfig(tt.cfg)
			got, err := c.Targets()
			if tt.wantErr {
				if !errors.Is(err, types.ErrConfiguration) {
					t.Fatalf("Targets() error = %v, want ErrConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Targets() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Targets() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTaskMachineDistro(t *testing.T) {
	t.Parallel()

	defaults := New(Options{WorkDir: "/work"})
	if got := defaults.Task(); got != "build" {
		t.Errorf("Task() = %q, want build", got)
	}
	if got := defaults.Machine(); got != "qemu" {
		t.Errorf("Machine() = %q, want qemu", got)
	}
	if got := defaults.Distro(); got != "poky" {
		t.Errorf("Distro() = %q, want poky", got)
	}

	configured := New(Options{WorkDir: "/work"})
	configured.SetConfig(map[string]any{"task": "fetch", "machine": "qemuarm", "distro": "poky-tiny"})
	if got := configured.Task(); got != "fetch" {
		t.Errorf("Task() = %q, want fetch", got)
	}
	if got := configured.Machine(); got != "qemuarm" {
		t.Errorf("Machine() = %q, want qemuarm", got)
	}
	if got := configured.Distro(); got != "poky-tiny" {
		t.Errorf("Distro() = %q, want poky-tiny", got)
	}

	fromEnv := New(Options{
		WorkDir:   "/work",
		OSEnviron: map[string]string{"KAS_TASK": "clean", "KAS_MACHINE": "genericx86", "KAS_DISTRO": "isar"},
		Overrides: map[string]any{"task": "fetch"},
	})
	fromEnv.SetConfig(map[string]any{"machine": "qemuarm"})
	if got := fromEnv.Task(); got != "clean" {
		t.Errorf("Task() = %q, want clean", got)
	}
	if got := fromEnv.Machine(); got != "genericx86" {
		t.Errorf("Machine() = %q, want genericx86", got)
	}
	if got := fromEnv.Distro(); got != "isar" {
		t.Errorf("Distro() = %q, want isar", got)
	}
}

func TestMulticonfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		targets []any
		want    string
		wantErr bool
	}{
		{name: "none", targets: []any{"core-image-minimal"}, want: ""},
		{
			name:    "deduplicated and sorted",
			targets: []any{"multiconfig:qemuarm:img", "mc:beta:img", "multiconfig:qemuarm:other", "plain"},
			want:    "beta qemuarm",
		},
		{name: "missing target part", targets: []any{"multiconfig:qemuarm"}, wantErr: true},
		{name: "empty name", targets: []any{"mc::img"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := New(Options{WorkDir: "/work"})
			c.SetConfig(map[string]any{"target": tt.targets})
			got, err := c.Multiconfig()
			if tt.wantErr {
				if !errors.Is(err, types.ErrConfiguration) {
					t.Fatalf("Multiconfig() error = %v, want ErrConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Multiconfig() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Multiconfig() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfHeader(t *testing.T) {
	t.Parallel()

	c := New(Options{WorkDir: "/work"})
	c.SetConfig(map[string]any{
		"local_conf_header": map[string]any{
			"zz-last":  "INHERIT += \"rm_work\"",
			"aa-first": "EXTRA_IMAGE_FEATURES = \"debug-tweaks\"",
		},
		"bblayers_conf_header": "not a mapping",
	})

	got, err := c.LocalConfHeader()
	if err != nil {
		t.Fatalf("LocalConfHeader() error: %v", err)
	}
	want := "# aa-first\nEXTRA_IMAGE_FEATURES = \"debug-tweaks\"\n# zz-last\nINHERIT += \"rm_work\"\n"
	if got != want {
		t.Errorf("LocalConfHeader() = %q, want %q", got, want)
	}

	if _, err := c.BBLayersConfHeader(); !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("BBLayersConfHeader() error = %v, want ErrConfiguration", err)
	}

	empty, err := c.ConfHeader("absent_header")
	if err != nil || empty != "" {
		t.Errorf("ConfHeader(absent) = %q, %v, want empty", empty, err)
	}
}

func TestGitlabCIConfig(t *testing.T) {
	t.Parallel()

	c := New(Options{WorkDir: "/work"})
	if got := c.GitlabCIConfig(); got != "" {
		t.Errorf("GitlabCIConfig() = %q, want empty", got)
	}
	c.SetConfig(map[string]any{"gitlabci_config": "ci: true\n"})
	if got := c.GitlabCIConfig(); got != "ci: true\n" {
		t.Errorf("GitlabCIConfig() = %q, want configured value", got)
	}
}
