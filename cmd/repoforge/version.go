// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// serverVersioner is satisfied by engines that can report their server version.
type serverVersioner interface {
	Version(ctx context.Context) (string, error)
}

// newVersionCommand creates the `repoforge version` command.
func newVersionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show client and engine versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(app.stdout, "repoforge %s\n", getVersionString())

			eng, _, err := app.openEngine(cmd.Context())
			if err != nil {
				// The client version alone is still useful when no engine
				// is reachable.
				fmt.Fprintln(app.stderr, WarningStyle.Render("engine unavailable: ")+err.Error())
				return nil
			}
			defer eng.Close()

			if v, ok := eng.(serverVersioner); ok {
				version, err := v.Version(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(app.stdout, "%s server %s\n", eng.Name(), version)
			}
			return nil
		},
	}
}
