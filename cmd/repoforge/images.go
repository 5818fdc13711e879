// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"repoforge/internal/engine"

	"github.com/spf13/cobra"
)

// newImagesCommand creates the `repoforge images` command.
func newImagesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "List images known to the engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := app.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer eng.Close()

			images, err := eng.Images(cmd.Context())
			if err != nil {
				return err
			}
			for _, img := range images {
				for _, tag := range img.Tags {
					fmt.Fprintln(app.stdout, tag)
				}
			}
			return nil
		},
	}
}

// newInspectCommand creates the `repoforge inspect` command.
func newInspectCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <image>",
		Short: "Show tags and configuration of an image as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := app.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer eng.Close()

			img, err := eng.InspectImage(cmd.Context(), engine.ImageRef(args[0]))
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(img, "", "  ")
			if err != nil {
				return fmt.Errorf("render image: %w", err)
			}
			fmt.Fprintln(app.stdout, string(out))
			return nil
		},
	}
}
