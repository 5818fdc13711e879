// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug-level logging
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// engineFlag overrides the configured container engine
	engineFlag string
	// hostFlag overrides the configured engine API endpoint
	hostFlag string
)

// NewRootCommand builds the repoforge command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "repoforge",
		Short: "Build and run reproducible environment images",
		Long: TitleStyle.Render("repoforge") + SubtitleStyle.Render(" - Build and run reproducible environment images") + `

repoforge turns repository contents into container images and runs them,
speaking to a pluggable container engine (Docker by default) through a
single adapter: streamed builds and pushes go through the engine CLI,
listings, inspection, and container lifecycle through the engine API.

` + SubtitleStyle.Render("Examples:") + `
  repoforge build -t demo:latest .      Build an image from the current directory
  repoforge run demo:latest             Start a detached container
  repoforge push demo:latest            Push with scoped registry credentials
  repoforge logs <container>            Fetch container logs
  repoforge config init                 Create a default configuration file`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				app.logger.SetLevel(log.DebugLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/repoforge/config.toml)")
	rootCmd.PersistentFlags().StringVar(&engineFlag, "engine", "", "container engine to use (overrides configuration)")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "engine API endpoint (overrides configuration)")

	// Add subcommands
	rootCmd.AddCommand(newBuildCommand(app))
	rootCmd.AddCommand(newPushCommand(app))
	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newImagesCommand(app))
	rootCmd.AddCommand(newInspectCommand(app))
	rootCmd.AddCommand(newLogsCommand(app))
	rootCmd.AddCommand(newStopCommand(app))
	rootCmd.AddCommand(newRemoveCommand(app))
	rootCmd.AddCommand(newVersionCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree and runs it. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	// Use fang.Execute for enhanced Cobra styling.
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
