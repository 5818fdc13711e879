// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"time"

	"repoforge/internal/engine"

	"github.com/spf13/cobra"
)

// newLogsCommand creates the `repoforge logs` command.
func newLogsCommand(app *App) *cobra.Command {
	var (
		follow     bool
		timestamps bool
		since      string
	)

	logsCmd := &cobra.Command{
		Use:   "logs <container>",
		Short: "Fetch the logs of a container",
		Long: `Fetch the logs of a container.

--since accepts a relative duration ("10m" means "10 minutes ago") or an
RFC 3339 timestamp. The engine filters at whole-second resolution, so lines
from the boundary second may appear again on a subsequent call.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sinceTime, err := parseSince(since, time.Now())
			if err != nil {
				return err
			}

			eng, _, err := app.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer eng.Close()

			ctr, err := eng.Container(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rc, err := ctr.Logs(cmd.Context(), engine.LogsOptions{
				Follow:     follow,
				Timestamps: timestamps,
				Since:      sinceTime,
			})
			if err != nil {
				return err
			}
			defer rc.Close()

			_, err = io.Copy(app.stdout, rc)
			return err
		},
	}

	logsCmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep streaming new log lines until the container stops")
	logsCmd.Flags().BoolVar(&timestamps, "timestamps", false, "prefix each line with its timestamp")
	logsCmd.Flags().StringVar(&since, "since", "", "only show lines logged at or after this time (duration or RFC 3339)")

	return logsCmd
}

// newStopCommand creates the `repoforge stop` command.
func newStopCommand(app *App) *cobra.Command {
	var timeout time.Duration

	stopCmd := &cobra.Command{
		Use:   "stop <container>",
		Short: "Stop a running container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := app.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer eng.Close()

			ctr, err := eng.Container(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := ctr.Stop(cmd.Context(), timeout); err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, ctr.ID())
			return nil
		},
	}

	stopCmd.Flags().DurationVar(&timeout, "timeout", engine.DefaultStopTimeout, "grace period before the engine kills the container")

	return stopCmd
}

// newRemoveCommand creates the `repoforge rm` command.
func newRemoveCommand(app *App) *cobra.Command {
	var force bool

	rmCmd := &cobra.Command{
		Use:   "rm <container>",
		Short: "Remove a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := app.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer eng.Close()

			ctr, err := eng.Container(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if force && ctr.Status() == "running" {
				if err := ctr.Kill(cmd.Context(), ""); err != nil {
					return err
				}
			}
			if err := ctr.Remove(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, ctr.ID())
			return nil
		},
	}

	rmCmd.Flags().BoolVarP(&force, "force", "f", false, "kill the container first if it is running")

	return rmCmd
}
