// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"repoforge/internal/engine"

	"github.com/spf13/cobra"
)

// newPushCommand creates the `repoforge push` command.
func newPushCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "push <image>",
		Short: "Push an image to its registry",
		Long: `Push an image to its registry.

With registry credentials configured (repoforge config, or the
REPOFORGE_REGISTRY_* environment variables), the push runs inside a scoped
login session: credentials are written to a private temporary store that is
discarded afterwards, and the host's Docker credential file is never touched.
Without credentials, whatever ambient login exists on the host applies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := app.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer eng.Close()

			stream, err := eng.Push(cmd.Context(), engine.ImageRef(args[0]))
			if err != nil {
				return err
			}
			if err := drainStream(stream, app.stdout); err != nil {
				return err
			}

			fmt.Fprintln(app.stderr, SuccessStyle.Render("Pushed ")+RefStyle.Render(args[0]))
			return nil
		},
	}
}
