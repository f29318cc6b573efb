// SPDX-License-Identifier: MPL-2.0

package bitbake

import (
	"context"

	"github.com/kasbuild/kas/internal/app/execute"
	"github.com/kasbuild/kas/internal/process"
)

// Args returns the bitbake command line for task and targets.
func Args(task string, targets []string) []string {
	return append([]string{"-k", "-c", task}, targets...)
}

// Build runs bitbake in the build directory with the context environment.
// A non-zero exit is returned as *process.ExitError.
func Build(ctx context.Context, runner process.Runner, kc *execute.Context) error {
	targets, err := kc.Targets()
	if err != nil {
		return err
	}
	env, err := kc.Environment()
	if err != nil {
		return err
	}
	return runner.Run(ctx, process.Cmd{
		Program: "bitbake",
		Args:    Args(kc.Task(), targets),
		Dir:     kc.BuildDir(),
		Env:     env,
	})
}
