// SPDX-License-Identifier: MPL-2.0

// Package process runs external programs (bash, bitbake, interactive shells)
// with an explicit environment and reports non-zero exits as ExitError.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kasbuild/kas/pkg/types"
)

// ErrExternalTool is the sentinel error wrapped by ExitError.
var ErrExternalTool = errors.New("external tool failed")

type (
	// Cmd describes one program invocation.
	Cmd struct {
		// Program is an executable path or a name looked up on Env["PATH"].
		Program string
		Args    []string
		// Dir is the working directory; "" means the current directory.
		Dir string
		// Env is the complete environment. Nothing from os.Environ is added.
		Env map[string]string
		// Stdin, Stdout and Stderr are used by Run; nil means the
		// corresponding os.Std* stream.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result holds the captured output of a successful Capture call.
	Result struct {
		Stdout string
		Stderr string
	}

	// ExitError reports a program that ran but exited non-zero.
	ExitError struct {
		Program string
		Code    types.ExitCode
		// Stderr is the captured error output, empty for streamed runs.
		Stderr string
	}

	// Runner runs programs. The default implementation is Exec; tests
	// substitute their own.
	Runner interface {
		Run(ctx context.Context, c Cmd) error
		Capture(ctx context.Context, c Cmd) (Result, error)
	}

	// Exec runs programs with os/exec.
	Exec struct{}
)

// Error implements the error interface.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Program, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Unwrap returns ErrExternalTool for errors.Is() compatibility.
func (e *ExitError) Unwrap() error { return ErrExternalTool }

// Run streams the program's output and waits for it to finish.
func (Exec) Run(ctx context.Context, c Cmd) error {
	cmd, err := c.command(ctx)
	if err != nil {
		return err
	}
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}
	return classify(c.Program, cmd.Run(), "")
}

// Capture runs the program and returns its output. Stdin is ignored.
func (Exec) Capture(ctx context.Context, c Cmd) (Result, error) {
	cmd, err := c.command(ctx)
	if err != nil {
		return Result{}, err
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	return res, classify(c.Program, runErr, res.Stderr)
}

// LookPath finds an executable named name in the directories of the PATH
// variable of env. Names containing a separator are checked as given.
func LookPath(name string, env map[string]string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) {
		if err := checkExecutable(name); err != nil {
			return "", err
		}
		return name, nil
	}
	for _, dir := range filepath.SplitList(env["PATH"]) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if checkExecutable(candidate) == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w in PATH %q", name, exec.ErrNotFound, env["PATH"])
}

func (c Cmd) command(ctx context.Context) (*exec.Cmd, error) {
	path, err := LookPath(c.Program, c.Env)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = environList(c.Env)
	return cmd, nil
}

// classify turns an *exec.ExitError into an ExitError; other failures
// (the program could not be started) pass through.
func classify(program string, err error, stderr string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Program: program, Code: types.ExitCode(exitErr.ExitCode()), Stderr: stderr}
	}
	return fmt.Errorf("run %s: %w", program, err)
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%s: %w", path, exec.ErrNotFound)
	}
	return nil
}

func environList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
