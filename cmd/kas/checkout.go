// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kasbuild/kas/internal/pipeline"
)

func newCheckoutCommand(app *App, flags *globalFlags) *cobra.Command {
	var skip []string

	cmd := &cobra.Command{
		Use:   "checkout <config>",
		Short: "Checks out all repositories and writes the bitbake configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.openProject(cmd.Context(), flags, args[0], nil)
			if err != nil {
				return app.wrapError(err, flags.debug)
			}
			m := pipeline.CheckoutMacro(app.deps(p))
			return app.wrapError(runMacro(cmd.Context(), m, p.kc, skip), flags.debug)
		},
	}

	cmd.Flags().StringSliceVar(&skip, "skip", nil, "skip steps")
	return cmd
}
