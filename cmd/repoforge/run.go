// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"repoforge/internal/engine"

	"github.com/spf13/cobra"
)

// newRunCommand creates the `repoforge run` command.
func newRunCommand(app *App) *cobra.Command {
	var (
		envPairs   []string
		ports      []string
		volumes    []string
		extraHosts []string
		name       string
		autoRemove bool
		publishAll bool
		platform   string
		wait       bool
	)

	runCmd := &cobra.Command{
		Use:   "run <image> [command...]",
		Short: "Start a detached container from an image",
		Long: `Start a detached container from an image.

The container ID is printed as soon as the container has started; the
command does not wait for the container's process to finish unless --wait
is given, in which case the container's exit code becomes repoforge's own.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.RunOptions{
				Image:           engine.ImageRef(args[0]),
				Command:         args[1:],
				ExtraHosts:      extraHosts,
				Name:            name,
				AutoRemove:      autoRemove,
				PublishAllPorts: publishAll,
				Platform:        platform,
			}

			var err error
			if opts.Env, err = parseKeyValues("env", envPairs); err != nil {
				return err
			}
			for _, p := range ports {
				mapping, err := engine.ParsePortMapping(p)
				if err != nil {
					return err
				}
				opts.Ports = append(opts.Ports, mapping)
			}
			for _, v := range volumes {
				mount, err := engine.ParseVolumeMount(v)
				if err != nil {
					return err
				}
				opts.Volumes = append(opts.Volumes, mount)
			}

			eng, _, err := app.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer eng.Close()

			ctr, err := eng.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, ctr.ID())

			if !wait {
				return nil
			}
			code, err := ctr.Wait(cmd.Context())
			if err != nil {
				return err
			}
			if code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	runCmd.Flags().StringArrayVarP(&envPairs, "env", "e", nil, "environment variable (KEY=VALUE, repeatable)")
	runCmd.Flags().StringArrayVarP(&ports, "port", "p", nil, "port mapping (hostPort:containerPort[/protocol], repeatable)")
	runCmd.Flags().StringArrayVar(&volumes, "volume", nil, "bind mount (hostPath:containerPath[:ro], repeatable)")
	runCmd.Flags().StringArrayVar(&extraHosts, "add-host", nil, "extra host-to-IP mapping (host:ip, repeatable)")
	runCmd.Flags().StringVar(&name, "name", "", "container name (default: engine-assigned)")
	runCmd.Flags().BoolVar(&autoRemove, "rm", false, "remove the container once it exits")
	runCmd.Flags().BoolVarP(&publishAll, "publish-all", "P", false, "publish all exposed ports to random host ports")
	runCmd.Flags().StringVar(&platform, "platform", "", "platform of the image to run (os/arch[/variant])")
	runCmd.Flags().BoolVar(&wait, "wait", false, "wait for the container to exit and adopt its exit code")

	return runCmd
}
