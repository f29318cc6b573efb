// SPDX-License-Identifier: MPL-2.0

package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/kasbuild/kas/pkg/types"
)

// writeScript creates an executable shell script named name in dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLookPath(t *testing.T) {
	t.Parallel()

	binDir := t.TempDir()
	script := writeScript(t, binDir, "bitbake", "exit 0")
	if err := os.WriteFile(filepath.Join(binDir, "notexec"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	env := map[string]string{"PATH": "/nonexistent" + string(os.PathListSeparator) + binDir}

	got, err := LookPath("bitbake", env)
	if err != nil {
		t.Fatalf("LookPath() error: %v", err)
	}
	if got != script {
		t.Errorf("LookPath() = %q, want %q", got, script)
	}

	if _, err := LookPath("notexec", env); !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("LookPath(notexec) error = %v, want exec.ErrNotFound", err)
	}
	if _, err := LookPath("bitbake", map[string]string{}); !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("LookPath() with empty PATH error = %v, want exec.ErrNotFound", err)
	}
	if got, err := LookPath(script, nil); err != nil || got != script {
		t.Errorf("LookPath(absolute) = %q, %v, want %q", got, err, script)
	}
}

func TestExec_Capture(t *testing.T) {
	t.Parallel()

	binDir := t.TempDir()
	writeScript(t, binDir, "show", `printf '%s|%s' "$FOO" "$HOME"; pwd >&2`)
	workDir := t.TempDir()

	res, err := Exec{}.Capture(context.Background(), Cmd{
		Program: "show",
		Dir:     workDir,
		Env:     map[string]string{"PATH": binDir + string(os.PathListSeparator) + "/bin:/usr/bin", "FOO": "bar"},
	})
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if res.Stdout != "bar|" {
		t.Errorf("Stdout = %q, want %q (HOME must not leak from the process)", res.Stdout, "bar|")
	}
	wantDir, _ := filepath.EvalSymlinks(workDir)
	if gotDir, _ := filepath.EvalSymlinks(strings.TrimSpace(res.Stderr)); gotDir != wantDir {
		t.Errorf("working directory = %q, want %q", gotDir, wantDir)
	}
}

func TestExec_NonZeroExit(t *testing.T) {
	t.Parallel()

	binDir := t.TempDir()
	script := writeScript(t, binDir, "fail", "echo broken >&2; exit 3")

	_, err := Exec{}.Capture(context.Background(), Cmd{Program: script, Env: map[string]string{"PATH": "/bin:/usr/bin"}})
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("Capture() error = %v, want ErrExternalTool", err)
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Capture() error = %T, want *ExitError", err)
	}
	if exitErr.Code != types.ExitCode(3) {
		t.Errorf("Code = %d, want 3", exitErr.Code)
	}
	if !strings.Contains(exitErr.Error(), "broken") {
		t.Errorf("Error() = %q, want captured stderr", exitErr.Error())
	}
}

func TestExec_RunStreams(t *testing.T) {
	t.Parallel()

	binDir := t.TempDir()
	script := writeScript(t, binDir, "echoer", "read line; echo \"got $line\"")

	var stdout bytes.Buffer
	err := Exec{}.Run(context.Background(), Cmd{
		Program: script,
		Env:     map[string]string{"PATH": "/bin:/usr/bin"},
		Stdin:   strings.NewReader("hello\n"),
		Stdout:  &stdout,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stdout.String() != "got hello\n" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "got hello\n")
	}
}

func TestExec_ProgramNotFound(t *testing.T) {
	t.Parallel()

	err := Exec{}.Run(context.Background(), Cmd{Program: "definitely-not-a-kas-tool", Env: map[string]string{"PATH": t.TempDir()}})
	if !errors.Is(err, exec.ErrNotFound) {
		t.Fatalf("Run() error = %v, want exec.ErrNotFound", err)
	}
	if errors.Is(err, ErrExternalTool) {
		t.Error("a program that never started must not be reported as an external tool failure")
	}
}
