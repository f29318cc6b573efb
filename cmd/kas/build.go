// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kasbuild/kas/internal/app/execute"
	"github.com/kasbuild/kas/internal/pipeline"
)

func newBuildCommand(app *App, flags *globalFlags) *cobra.Command {
	var (
		targets []string
		task    string
		skip    []string
	)

	cmd := &cobra.Command{
		Use:   "build <config>",
		Short: "Checks out all repositories and runs bitbake",
		Long: `Resolves the configuration file, fetches and checks out every repository,
writes bblayers.conf and local.conf and runs bitbake for the selected targets.

` + SubtitleStyle.Render("Steps (names usable with --skip):") + `
  setup_dir, setup_ssh_agent, repos_fetch, repos_checkout, setup_environ,
  write_config, setup_home, build, cleanup_ssh_agent`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]any{}
			if len(targets) > 0 {
				overrides[execute.KeyTarget] = stringsToAny(targets)
			}
			if task != "" {
				overrides[execute.KeyTask] = task
			}

			p, err := app.openProject(cmd.Context(), flags, args[0], overrides)
			if err != nil {
				return app.wrapError(err, flags.debug)
			}
			m := pipeline.BuildMacro(app.deps(p))
			return app.wrapError(runMacro(cmd.Context(), m, p.kc, skip), flags.debug)
		},
	}

	cmd.Flags().StringArrayVar(&targets, "target", nil, "select which target to build (repeatable)")
	cmd.Flags().StringVar(&task, "task", "", "select which task should be executed")
	cmd.Flags().StringSliceVar(&skip, "skip", nil, "skip build steps")
	return cmd
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
