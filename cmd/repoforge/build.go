// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"repoforge/internal/engine"

	"github.com/spf13/cobra"
)

// newBuildCommand creates the `repoforge build` command.
func newBuildCommand(app *App) *cobra.Command {
	var (
		tag         string
		dockerfile  string
		buildArgs   []string
		cacheFrom   []string
		labels      []string
		platform    string
		archivePath string
	)

	buildCmd := &cobra.Command{
		Use:   "build [context-dir]",
		Short: "Build an image from a directory or a tar archive",
		Long: `Build an image from a build context.

The context is a directory (default "."), or a tar archive supplied with
--context-archive (use "-" to read the archive from stdin). Build output is
streamed line by line as the engine produces it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.BuildOptions{
				Tag:        engine.ImageRef(tag),
				Dockerfile: dockerfile,
				Platform:   platform,
			}

			var err error
			if opts.BuildArgs, err = parseKeyValues("build-arg", buildArgs); err != nil {
				return err
			}
			if opts.Labels, err = parseKeyValues("label", labels); err != nil {
				return err
			}
			for _, cf := range cacheFrom {
				opts.CacheFrom = append(opts.CacheFrom, engine.ImageRef(cf))
			}

			switch {
			case archivePath == "-":
				opts.ContextArchive = cmd.InOrStdin()
			case archivePath != "":
				f, err := os.Open(archivePath)
				if err != nil {
					return fmt.Errorf("open context archive: %w", err)
				}
				defer f.Close()
				opts.ContextArchive = f
			case len(args) == 1:
				opts.ContextDir = args[0]
			default:
				opts.ContextDir = "."
			}

			eng, cfg, err := app.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer eng.Close()

			if opts.Platform == "" {
				opts.Platform = cfg.Build.Platform
			}
			if len(opts.CacheFrom) == 0 {
				for _, cf := range cfg.Build.CacheFrom {
					opts.CacheFrom = append(opts.CacheFrom, engine.ImageRef(cf))
				}
			}

			stream, err := eng.Build(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := drainStream(stream, app.stdout); err != nil {
				return err
			}

			if tag != "" {
				fmt.Fprintln(app.stderr, SuccessStyle.Render("Built ")+RefStyle.Render(tag))
			}
			return nil
		},
	}

	buildCmd.Flags().StringVarP(&tag, "tag", "t", "", "name for the built image (repo:tag)")
	buildCmd.Flags().StringVarP(&dockerfile, "file", "f", "", "path of the Dockerfile (default: Dockerfile in the context)")
	buildCmd.Flags().StringArrayVar(&buildArgs, "build-arg", nil, "build-time variable (KEY=VALUE, repeatable)")
	buildCmd.Flags().StringArrayVar(&cacheFrom, "cache-from", nil, "image to use as a cache source (repeatable)")
	buildCmd.Flags().StringArrayVar(&labels, "label", nil, "label for the built image (KEY=VALUE, repeatable)")
	buildCmd.Flags().StringVar(&platform, "platform", "", "target platform (os/arch[/variant])")
	buildCmd.Flags().StringVar(&archivePath, "context-archive", "", `tar archive to use as the build context ("-" for stdin)`)

	return buildCmd
}

// drainStream copies every line of a LogStream to out and surfaces the
// stream's terminal error.
func drainStream(stream *engine.LogStream, out io.Writer) error {
	defer stream.Close()
	for line := range stream.Lines() {
		fmt.Fprintln(out, line)
	}
	return stream.Err()
}
