// SPDX-License-Identifier: MPL-2.0

package bitbake

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kasbuild/kas/internal/app/execute"
	"github.com/kasbuild/kas/internal/process"
	"github.com/kasbuild/kas/pkg/repos"
	"github.com/kasbuild/kas/pkg/types"
)

// fakeRunner records invocations and replays a canned result.
type fakeRunner struct {
	calls  []process.Cmd
	stdout string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, c process.Cmd) error {
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeRunner) Capture(_ context.Context, c process.Cmd) (process.Result, error) {
	f.calls = append(f.calls, c)
	return process.Result{Stdout: f.stdout}, f.err
}

func TestBBLayersConf(t *testing.T) {
	t.Parallel()

	got := BBLayersConf("# header\nX = \"1\"\n", []string{"/w/poky/meta", "/w/meta-x/layers/meta-x", "/w/poky/meta"})
	want := "# header\nX = \"1\"\n" +
		"BBLAYERS ?= \" \\\n" +
		"    /w/meta-x/layers/meta-x \\\n" +
		"    /w/poky/meta\"\n"
	if got != want {
		t.Errorf("BBLayersConf() =\n%q\nwant\n%q", got, want)
	}
}

func TestBBLayersConf_Empty(t *testing.T) {
	t.Parallel()

	if got, want := BBLayersConf("", nil), "BBLAYERS ?= \" \\\n    \"\n"; got != want {
		t.Errorf("BBLayersConf() = %q, want %q", got, want)
	}
}

func TestLocalConf(t *testing.T) {
	t.Parallel()

	got := LocalConf("# a\nA = \"1\"\n", "qemu", "poky", "mc1 mc2")
	want := "# a\nA = \"1\"\nMACHINE ?= \"qemu\"\nDISTRO ?= \"poky\"\nBBMULTICONFIG ?= \"mc1 mc2\"\n"
	if got != want {
		t.Errorf("LocalConf() = %q, want %q", got, want)
	}
}

func TestWriteConfig(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	kc := execute.New(execute.Options{WorkDir: work, ConfigRepoPath: filepath.Join(work, "config")})
	kc.SetConfig(map[string]any{
		"machine": "qemu",
		"distro":  "poky",
		"repos": map[string]any{
			"self":   nil,
			"meta-x": map[string]any{"url": "https://example.com/meta-x.git", "layers": map[string]any{"layers/meta-x": ""}},
		},
		"local_conf_header": map[string]any{"base": "CONF_VERSION = \"2\""},
	})

	if err := WriteConfig(kc); err != nil {
		t.Fatalf("WriteConfig() error: %v", err)
	}

	local, err := os.ReadFile(filepath.Join(work, "build", "conf", "local.conf"))
	if err != nil {
		t.Fatalf("ReadFile(local.conf): %v", err)
	}
	wantLocal := "# base\nCONF_VERSION = \"2\"\nMACHINE ?= \"qemu\"\nDISTRO ?= \"poky\"\nBBMULTICONFIG ?= \"\"\n"
	if string(local) != wantLocal {
		t.Errorf("local.conf = %q, want %q", local, wantLocal)
	}

	bblayers, err := os.ReadFile(filepath.Join(work, "build", "conf", "bblayers.conf"))
	if err != nil {
		t.Fatalf("ReadFile(bblayers.conf): %v", err)
	}
	wantLayers := BBLayersConf("", []string{
		filepath.Join(work, "config"),
		filepath.Join(work, "meta-x", "layers/meta-x"),
	})
	if string(bblayers) != wantLayers {
		t.Errorf("bblayers.conf = %q, want %q", bblayers, wantLayers)
	}
	if !strings.Contains(string(bblayers), "layers/meta-x") {
		t.Error("bblayers.conf does not list layers/meta-x")
	}
}

func TestWriteConfig_InvalidMulticonfig(t *testing.T) {
	t.Parallel()

	kc := execute.New(execute.Options{WorkDir: t.TempDir()})
	kc.SetConfig(map[string]any{"target": "multiconfig:broken"})
	if err := WriteConfig(kc); !errors.Is(err, types.ErrConfiguration) {
		t.Fatalf("WriteConfig() error = %v, want ErrConfiguration", err)
	}
}

func TestFindInitScript(t *testing.T) {
	t.Parallel()

	poky := t.TempDir()
	isar := t.TempDir()
	plain := t.TempDir()
	for dir, script := range map[string]string{poky: "oe-init-build-env", isar: "isar-init-build-env"} {
		if err := os.WriteFile(filepath.Join(dir, script), []byte("# init\n"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	pokyRepo := repos.NewLocal("poky", poky, nil)
	isarRepo := repos.NewLocal("isar", isar, nil)
	plainRepo := repos.NewLocal("meta-x", plain, nil)

	got, script, err := FindInitScript([]*repos.Repo{plainRepo, pokyRepo})
	if err != nil {
		t.Fatalf("FindInitScript() error: %v", err)
	}
	if got != pokyRepo || script != "oe-init-build-env" {
		t.Errorf("FindInitScript() = %v, %q, want poky, oe-init-build-env", got, script)
	}

	if _, _, err := FindInitScript([]*repos.Repo{plainRepo}); !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("FindInitScript(none) error = %v, want ErrConfiguration", err)
	}
	if _, _, err := FindInitScript([]*repos.Repo{pokyRepo, isarRepo}); !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("FindInitScript(several) error = %v, want ErrConfiguration", err)
	}
}

func TestBuildEnviron(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	poky := filepath.Join(work, "poky")
	if err := os.MkdirAll(poky, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(poky, "oe-init-build-env"), []byte("# init\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	kc := execute.New(execute.Options{
		WorkDir:   work,
		OSEnviron: map[string]string{"DL_DIR": "/downloads", "TERM": "xterm", "HOME": "/home/me"},
	})
	kc.SetConfig(map[string]any{
		"env":   map[string]any{"MY_VAR": "1"},
		"repos": map[string]any{"poky": map[string]any{"url": "https://git.yoctoproject.org/poky"}},
	})

	runner := &fakeRunner{stdout: "PATH=/w/poky/scripts:/bin\x00BB_ENV_EXTRAWHITE=MACHINE DISTRO\x00BUILDDIR=" +
		filepath.Join(work, "build") + "\x00noise\x00"}
	env, err := BuildEnviron(context.Background(), runner, kc)
	if err != nil {
		t.Fatalf("BuildEnviron() error: %v", err)
	}

	want := map[string]string{
		"PATH":              "/w/poky/scripts:/bin",
		"BB_ENV_EXTRAWHITE": "MACHINE DISTRO MY_VAR SSTATE_DIR DL_DIR TMPDIR",
		"BUILDDIR":          filepath.Join(work, "build"),
		"DL_DIR":            "/downloads",
		"TERM":              "xterm",
	}
	if !reflect.DeepEqual(env, want) {
		t.Errorf("BuildEnviron() = %v, want %v", env, want)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("runner calls = %d, want 1", len(runner.calls))
	}
	call := runner.calls[0]
	if call.Program != "bash" || call.Dir != poky {
		t.Errorf("runner call = %s in %s, want bash in %s", call.Program, call.Dir, poky)
	}
	if !reflect.DeepEqual(call.Env, map[string]string{"PATH": "/bin:/usr/bin"}) {
		t.Errorf("init script env = %v, want only PATH", call.Env)
	}
	if script := call.Args[len(call.Args)-1]; !strings.Contains(script, "oe-init-build-env") || !strings.HasSuffix(script, "env -0") {
		t.Errorf("init command = %q", script)
	}
}

func TestBuildEnviron_ScriptFails(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	if err := os.WriteFile(filepath.Join(work, "oe-init-build-env"), []byte(""), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	kc := execute.New(execute.Options{WorkDir: work, ConfigRepoPath: work})
	kc.SetConfig(map[string]any{"repos": map[string]any{"self": nil}})

	runner := &fakeRunner{err: &process.ExitError{Program: "bash", Code: 1}}
	if _, err := BuildEnviron(context.Background(), runner, kc); !errors.Is(err, process.ErrExternalTool) {
		t.Fatalf("BuildEnviron() error = %v, want ErrExternalTool", err)
	}
}

func TestParseEnv0(t *testing.T) {
	t.Parallel()

	got := ParseEnv0("A=1\x00B=x=y\x00MULTI=line1\nline2\x00bad\x00")
	want := map[string]string{"A": "1", "B": "x=y", "MULTI": "line1\nline2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseEnv0() = %v, want %v", got, want)
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	kc := execute.New(execute.Options{WorkDir: work, OSEnviron: map[string]string{"KAS_TARGET": "img-a img-b"}})
	kc.SetConfig(map[string]any{"task": "populate_sdk"})
	kc.SetBuildEnvironment(map[string]string{"PATH": "/w/poky/bitbake/bin:/bin"})

	runner := &fakeRunner{}
	if err := Build(context.Background(), runner, kc); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	call := runner.calls[0]
	if want := []string{"-k", "-c", "populate_sdk", "img-a", "img-b"}; !reflect.DeepEqual(call.Args, want) {
		t.Errorf("bitbake args = %v, want %v", call.Args, want)
	}
	if call.Dir != kc.BuildDir() {
		t.Errorf("bitbake dir = %q, want %q", call.Dir, kc.BuildDir())
	}
	if call.Env["PATH"] != "/w/poky/bitbake/bin:/bin" {
		t.Errorf("bitbake PATH = %q", call.Env["PATH"])
	}
}

func TestBuild_FailureSurfaced(t *testing.T) {
	t.Parallel()

	kc := execute.New(execute.Options{WorkDir: t.TempDir()})
	runner := &fakeRunner{err: &process.ExitError{Program: "bitbake", Code: 1}}
	err := Build(context.Background(), runner, kc)
	var exitErr *process.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("Build() error = %v, want bitbake ExitError", err)
	}
}
