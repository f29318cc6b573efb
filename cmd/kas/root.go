// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for kas.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	settingsFile string
	workDir      string
	debug        bool
}

// NewRootCommand builds the kas command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "kas",
		Short: "Setup tool for bitbake based projects",
		Long: TitleStyle.Render("kas") + SubtitleStyle.Render(" - setup tool for bitbake based projects") + `

kas reads a project configuration file, fetches and checks out every
repository it refers to (including repositories that only appear in
included fragments), writes bblayers.conf and local.conf, and runs bitbake.

` + SubtitleStyle.Render("Examples:") + `
  kas build kas-project.yml                 Build the default target
  kas build kas-project.yml --target zlib   Build another target
  kas checkout kas-project.yml              Only fetch and configure
  kas shell kas-project.yml                 Open a build shell
  kas dump kas-project.yml                  Print the merged configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.settingsFile, "settings", "", "settings file (default is $XDG_CONFIG_HOME/kas/config.cue)")
	rootCmd.PersistentFlags().StringVar(&flags.workDir, "work-dir", "", "work directory for repositories and the build directory (default is $KAS_WORK_DIR or the current directory)")
	rootCmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")

	rootCmd.AddCommand(
		newBuildCommand(app, flags),
		newCheckoutCommand(app, flags),
		newShellCommand(app, flags),
		newDumpCommand(app, flags),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process. It is called by main.main().
func Execute() {
	os.Exit(Main())
}

// Main runs the CLI against the process environment and returns the exit code.
func Main() int {
	return run(context.Background(), NewApp(Dependencies{}), os.Args[1:])
}

func run(ctx context.Context, app *App, args []string) int {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			var svcErr *ServiceError
			if errors.As(err, &svcErr) {
				return
			}
			fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("ERROR:"), err)
		}),
	)
	return exitCode(err)
}
