// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"repoforge/internal/config"
	"repoforge/internal/engine"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: all Cobra command handlers receive an App
	// reference and delegate work through its service interfaces.
	App struct {
		Config  config.Provider
		Engines EngineOpener
		stdout  io.Writer
		stderr  io.Writer
		logger  *log.Logger
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp. Tests supply
	// fakes to isolate command behavior from real engines.
	Dependencies struct {
		Config  config.Provider
		Engines EngineOpener
		Stdout  io.Writer
		Stderr  io.Writer
		Logger  *log.Logger
	}

	// EngineOpener constructs a container engine by registry name.
	EngineOpener interface {
		Open(ctx context.Context, name string, opts engine.Options) (engine.Engine, error)
	}

	// registryEngineOpener opens engines through the package-level engine registry.
	registryEngineOpener struct{}
)

// Open constructs the engine registered under name.
func (registryEngineOpener) Open(ctx context.Context, name string, opts engine.Options) (engine.Engine, error) {
	return engine.New(ctx, name, opts)
}

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Engines == nil {
		deps.Engines = registryEngineOpener{}
	}
	if deps.Logger == nil {
		deps.Logger = log.NewWithOptions(deps.Stderr, log.Options{ReportTimestamp: false})
	}

	return &App{
		Config:  deps.Config,
		Engines: deps.Engines,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
		logger:  deps.Logger,
	}
}

// loadConfig loads the effective configuration, honoring the --config flag,
// and applies the UI preferences it carries. The --verbose flag and
// ui.verbose are equivalent; either enables debug logging.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return nil, err
	}

	if verbose || cfg.UI.Verbose {
		a.logger.SetLevel(log.DebugLevel)
	}
	applyColorScheme(cfg.UI.ColorScheme)

	a.logger.Debug("configuration loaded", "engine", cfg.Engine, "host", cfg.Host)
	return cfg, nil
}

// openEngine resolves the engine named by flags and configuration, opens it,
// and returns it together with the configuration it was derived from. The
// caller owns the returned engine and must Close it.
func (a *App) openEngine(ctx context.Context) (engine.Engine, *config.Config, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	name := string(cfg.Engine)
	if engineFlag != "" {
		name = engineFlag
	}

	opts := engine.Options{
		Host:           cfg.Host,
		APIVersion:     cfg.APIVersion,
		ExtraBuildArgs: cfg.Build.ExtraArgs,
		Logger:         a.logger,
	}
	if hostFlag != "" {
		opts.Host = hostFlag
	}
	if cfg.Registry.HasCredentials() {
		opts.Credentials = &engine.RegistryCredentials{
			Username: cfg.Registry.Username,
			Password: cfg.Registry.Password,
			Registry: cfg.Registry.Server,
		}
	}

	eng, err := a.Engines.Open(ctx, name, opts)
	if err != nil {
		return nil, nil, err
	}
	return eng, cfg, nil
}
