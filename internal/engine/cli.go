// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// It allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// CLIDriverOption configures a CLIDriver.
	CLIDriverOption func(*CLIDriver)

	// CLIDriver runs an engine's command-line client as a subprocess. It
	// resolves the binary once at construction; operations that need the CLI
	// fail with an EngineUnavailableError when the binary is missing.
	CLIDriver struct {
		engineName string
		binaryPath string
		execCmd    ExecCommandFunc
		logger     *log.Logger
	}
)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) CLIDriverOption {
	return func(d *CLIDriver) {
		d.execCmd = fn
	}
}

// WithCLILogger sets the logger that records CLI invocations at debug level.
func WithCLILogger(logger *log.Logger) CLIDriverOption {
	return func(d *CLIDriver) {
		d.logger = logger
	}
}

// NewCLIDriver resolves binaryName on PATH and returns a driver for it. The
// driver is still returned when the binary is missing; Available reports the
// outcome and every invocation fails with an EngineUnavailableError.
func NewCLIDriver(engineName, binaryName string, opts ...CLIDriverOption) *CLIDriver {
	path, _ := exec.LookPath(binaryName)
	d := &CLIDriver{
		engineName: engineName,
		binaryPath: path,
		execCmd:    exec.CommandContext,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Available reports whether the engine binary was found on PATH.
func (d *CLIDriver) Available() bool {
	return d.binaryPath != ""
}

// BinaryPath returns the resolved path of the engine binary, or "" when the
// binary is not installed.
func (d *CLIDriver) BinaryPath() string {
	return d.binaryPath
}

// require returns an EngineUnavailableError when the binary is missing.
func (d *CLIDriver) require() error {
	if d.binaryPath == "" {
		return &EngineUnavailableError{
			Engine: d.engineName,
			Reason: "the " + d.engineName + " command-line client must be installed",
		}
	}
	return nil
}

// command creates an exec.Cmd for the given arguments. extraEnv entries, if
// any, are overlaid on the parent process environment.
func (d *CLIDriver) command(ctx context.Context, extraEnv map[string]string, args ...string) *exec.Cmd {
	cmd := d.execCmd(ctx, d.binaryPath, args...)
	if len(extraEnv) > 0 {
		// exec.Cmd.Env being nil means "inherit everything"; once set to a
		// non-nil slice, only the listed vars reach the child. Preserve an
		// environment the exec function may already have applied.
		if cmd.Env == nil {
			cmd.Env = os.Environ()
		}
		for _, k := range sortedKeys(extraEnv) {
			cmd.Env = append(cmd.Env, k+"="+extraEnv[k])
		}
	}
	return cmd
}

// run executes an invocation to completion and returns its combined output.
func (d *CLIDriver) run(ctx context.Context, extraEnv map[string]string, stdin io.Reader, args ...string) ([]byte, int, error) {
	if err := d.require(); err != nil {
		return nil, -1, err
	}

	d.logger.Debug("running engine CLI", "engine", d.engineName, "args", args)

	cmd := d.command(ctx, extraEnv, args...)
	cmd.Stdin = stdin

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return out.Bytes(), exitCode, err
	}
	return out.Bytes(), 0, nil
}

// stream starts an invocation and returns a LogStream over its combined
// stdout/stderr. cleanups run once the subprocess has been reaped; when start
// itself fails they run immediately.
func (d *CLIDriver) stream(ctx context.Context, extraEnv map[string]string, args []string, finish finishFunc, cleanups ...func()) (*LogStream, error) {
	runCleanups := func() {
		for _, cleanup := range cleanups {
			cleanup()
		}
	}

	if err := d.require(); err != nil {
		runCleanups()
		return nil, err
	}

	d.logger.Debug("streaming engine CLI", "engine", d.engineName, "args", args)

	cmd := d.command(ctx, extraEnv, args...)

	r, w, err := os.Pipe()
	if err != nil {
		runCleanups()
		return nil, err
	}
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		runCleanups()
		return nil, &EngineUnavailableError{
			Engine: d.engineName,
			Reason: "failed to start the " + d.engineName + " command-line client",
			Cause:  err,
		}
	}
	// The child holds its own copy of the write end.
	_ = w.Close()

	return newLogStream(cmd, r, finish, cleanups...), nil
}
