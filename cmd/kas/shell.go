// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kasbuild/kas/internal/pipeline"
)

func newShellCommand(app *App, flags *globalFlags) *cobra.Command {
	var (
		command string
		skip    []string
	)

	cmd := &cobra.Command{
		Use:   "shell <config>",
		Short: "Runs a shell in the build environment",
		Long: `Checks out all repositories like 'kas checkout' and then starts $SHELL in
the build directory with the bitbake environment. With --command the given
command line is run instead of an interactive shell.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.openProject(cmd.Context(), flags, args[0], nil)
			if err != nil {
				return app.wrapError(err, flags.debug)
			}
			m := pipeline.ShellMacro(app.deps(p), command, app.stdin, app.stdout, app.stderr)
			return app.wrapError(runMacro(cmd.Context(), m, p.kc, skip), flags.debug)
		},
	}

	cmd.Flags().StringVarP(&command, "command", "c", "", "run this command line instead of an interactive shell")
	cmd.Flags().StringSliceVar(&skip, "skip", nil, "skip steps")
	return cmd
}
