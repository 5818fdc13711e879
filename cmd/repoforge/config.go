// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"repoforge/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `repoforge config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage repoforge configuration",
		Long: `Manage repoforge configuration.

Configuration is stored in:
  - Linux: ~/.config/repoforge/config.toml
  - macOS: ~/Library/Application Support/repoforge/config.toml
  - Windows: %APPDATA%\repoforge\config.toml

Every key can be overridden via REPOFORGE_* environment variables, which is
the recommended channel for registry credentials.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := app.Config.LoadWithPath(cmd.Context(), config.LoadOptions{ConfigFilePath: cfgFile})
			if err != nil {
				return err
			}

			if path == "" {
				fmt.Fprintln(app.stderr, SubtitleStyle.Render("(no config file found, showing defaults and environment overrides)"))
			} else {
				fmt.Fprintln(app.stderr, SubtitleStyle.Render("loaded from ")+RefStyle.Render(path))
			}

			shown := *cfg
			if shown.Registry.Password != "" {
				shown.Registry.Password = "********"
			}
			content, err := config.GenerateTOML(&shown)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, content)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value and save it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd.Context(), app, args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	return cfgCmd
}

// setConfigValue updates one key in the loaded configuration and writes the
// whole file back. Environment overrides active at load time are persisted
// along with the change, except that keys being set are always taken from
// the command line.
func setConfigValue(ctx context.Context, app *App, key, value string) error {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return err
	}

	switch key {
	case "engine":
		cfg.Engine = config.EngineName(value)

	case "host":
		cfg.Host = value

	case "api_version":
		cfg.APIVersion = value

	case "registry.server":
		cfg.Registry.Server = value

	case "registry.username":
		cfg.Registry.Username = value

	case "registry.password":
		cfg.Registry.Password = value

	case "build.platform":
		cfg.Build.Platform = value

	case "ui.color_scheme":
		cfg.UI.ColorScheme = config.ColorScheme(value)

	case "ui.verbose":
		cfg.UI.Verbose = value == "true" || value == "1"

	default:
		return fmt.Errorf("unknown configuration key: %s\nValid keys: engine, host, api_version, registry.server, registry.username, registry.password, build.platform, ui.color_scheme, ui.verbose", key)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return errs[0]
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(app.stdout, "%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}
