// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newDumpCommand(app *App, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <config>",
		Short: "Prints the merged configuration as YAML",
		Long: `Resolves the configuration file and its includes, fetching repositories
where includes require them, and prints the merged result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.openProject(cmd.Context(), flags, args[0], nil)
			if err != nil {
				return app.wrapError(err, flags.debug)
			}
			enc := yaml.NewEncoder(app.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(p.kc.Config()); err != nil {
				return app.wrapError(fmt.Errorf("encode configuration: %w", err), flags.debug)
			}
			return app.wrapError(enc.Close(), flags.debug)
		},
	}
}
