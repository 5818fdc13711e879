// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"repoforge/internal/config"
	"repoforge/internal/engine"

	"github.com/charmbracelet/log"
)

type (
	// fakeEngine is an in-memory engine.Engine double for command handler tests.
	fakeEngine struct {
		name       string
		images     []engine.Image
		inspect    map[engine.ImageRef]engine.Image
		containers map[string]*fakeContainer

		runOpts *engine.RunOptions
		runCtr  *fakeContainer
		runErr  error

		closed bool
	}

	// fakeContainer is an engine.Container double that records lifecycle calls.
	fakeContainer struct {
		id          string
		status      string
		exitCode    int
		logs        string
		logsOpts    engine.LogsOptions
		waitCode    int
		killed      string
		stopTimeout time.Duration
		removed     bool
	}

	// fakeOpener hands out a fixed engine and records what it was asked for.
	fakeOpener struct {
		eng     *fakeEngine
		name    string
		opts    engine.Options
		openErr error
	}

	// staticConfigProvider returns a fixed configuration.
	staticConfigProvider struct {
		cfg *config.Config
	}
)

func (f *fakeOpener) Open(_ context.Context, name string, opts engine.Options) (engine.Engine, error) {
	f.name = name
	f.opts = opts
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.eng, nil
}

func (p staticConfigProvider) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	return p.cfg, nil
}

func (p staticConfigProvider) LoadWithPath(context.Context, config.LoadOptions) (*config.Config, string, error) {
	return p.cfg, "", nil
}

func (e *fakeEngine) Name() string { return e.name }

func (e *fakeEngine) Build(context.Context, engine.BuildOptions) (*engine.LogStream, error) {
	return nil, errors.New("build is not streamable through the fake engine")
}

func (e *fakeEngine) Push(context.Context, engine.ImageRef) (*engine.LogStream, error) {
	return nil, errors.New("push is not streamable through the fake engine")
}

func (e *fakeEngine) Images(context.Context) ([]engine.Image, error) {
	return e.images, nil
}

func (e *fakeEngine) InspectImage(_ context.Context, ref engine.ImageRef) (engine.Image, error) {
	img, ok := e.inspect[ref]
	if !ok {
		return engine.Image{}, &engine.ImageNotFoundError{Ref: string(ref)}
	}
	return img, nil
}

func (e *fakeEngine) Run(_ context.Context, opts engine.RunOptions) (engine.Container, error) {
	if e.runErr != nil {
		return nil, e.runErr
	}
	e.runOpts = &opts
	return e.runCtr, nil
}

func (e *fakeEngine) Container(_ context.Context, id string) (engine.Container, error) {
	ctr, ok := e.containers[id]
	if !ok {
		return nil, &engine.ContainerNotFoundError{ID: id}
	}
	return ctr, nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

func (c *fakeContainer) ID() string                   { return c.id }
func (c *fakeContainer) Reload(context.Context) error { return nil }
func (c *fakeContainer) Status() string               { return c.status }
func (c *fakeContainer) ExitCode() int                { return c.exitCode }
func (c *fakeContainer) InspectedAt() time.Time       { return time.Now() }

func (c *fakeContainer) Logs(_ context.Context, opts engine.LogsOptions) (io.ReadCloser, error) {
	c.logsOpts = opts
	return io.NopCloser(strings.NewReader(c.logs)), nil
}

func (c *fakeContainer) Kill(_ context.Context, signal string) error {
	c.killed = signal
	if signal == "" {
		c.killed = engine.DefaultKillSignal
	}
	return nil
}

func (c *fakeContainer) Stop(_ context.Context, timeout time.Duration) error {
	c.stopTimeout = timeout
	return nil
}

func (c *fakeContainer) Remove(context.Context) error {
	c.removed = true
	return nil
}

func (c *fakeContainer) Wait(context.Context) (int, error) {
	return c.waitCode, nil
}

// resetFlags restores the package-level flag state between tests.
func resetFlags() {
	verbose = false
	cfgFile = ""
	engineFlag = ""
	hostFlag = ""
}

// runCommand executes the CLI against fakes and returns stdout, stderr, err.
func runCommand(t *testing.T, eng *fakeEngine, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(resetFlags)
	resetFlags()

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config:  staticConfigProvider{cfg: cfg},
		Engines: &fakeOpener{eng: eng},
		Stdout:  &stdout,
		Stderr:  &stderr,
		Logger:  log.New(io.Discard),
	})

	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}
