// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
)

const (
	// DefaultKillSignal is sent by Kill when no signal is given.
	DefaultKillSignal = "KILL"
	// DefaultStopTimeout is the grace period Stop gives the container when
	// none is specified.
	DefaultStopTimeout = 10 * time.Second
)

// dockerContainer proxies one live Docker container. Its only state is the
// identifier and the attribute snapshot of the last Reload; everything else
// lives in the engine.
type dockerContainer struct {
	api dockerAPI
	id  string

	attrs       containertypes.InspectResponse
	inspectedAt time.Time
}

var _ Container = (*dockerContainer)(nil)

func newDockerContainer(api dockerAPI, id string) *dockerContainer {
	return &dockerContainer{api: api, id: id}
}

// ID returns the engine's container identifier.
func (c *dockerContainer) ID() string { return c.id }

// Reload refreshes the attribute snapshot backing Status and ExitCode.
func (c *dockerContainer) Reload(ctx context.Context) error {
	attrs, err := c.api.ContainerInspect(ctx, c.id)
	if err != nil {
		return c.mapErr("inspect", err)
	}
	c.attrs = attrs
	c.inspectedAt = time.Now()
	return nil
}

// Logs returns the container's log output, demultiplexed into a plain byte
// stream. The Since filter is truncated to whole seconds before being passed
// to the engine, so lines from the boundary second are delivered at least
// once, not exactly once.
func (c *dockerContainer) Logs(ctx context.Context, opts LogsOptions) (io.ReadCloser, error) {
	logsOpts := containertypes.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     opts.Follow,
		Timestamps: opts.Timestamps,
	}
	if !opts.Since.IsZero() {
		logsOpts.Since = strconv.FormatInt(sinceSeconds(opts.Since), 10)
	}

	rc, err := c.api.ContainerLogs(ctx, c.id, logsOpts)
	if err != nil {
		return nil, c.mapErr("fetch logs of", err)
	}
	if c.tty() {
		// TTY containers produce a single raw stream with no framing.
		return rc, nil
	}

	pr, pw := io.Pipe()
	go func() {
		_, copyErr := stdcopy.StdCopy(pw, pw, rc)
		_ = rc.Close()
		_ = pw.CloseWithError(copyErr)
	}()
	return pr, nil
}

// tty reports whether the last snapshot saw a TTY container. Handles that
// have never been reloaded are treated as non-TTY, which holds for every
// container this package creates.
func (c *dockerContainer) tty() bool {
	return c.attrs.Config != nil && c.attrs.Config.Tty
}

// Kill sends signal to the container, defaulting to SIGKILL.
func (c *dockerContainer) Kill(ctx context.Context, signal string) error {
	if signal == "" {
		signal = DefaultKillSignal
	}
	if err := c.api.ContainerKill(ctx, c.id, signal); err != nil {
		return c.mapErr("kill", err)
	}
	return nil
}

// Stop stops the container after the given grace period (DefaultStopTimeout
// when zero or negative). The API counts the grace period in whole seconds,
// so sub-second timeouts round up to one second rather than degrading to an
// immediate kill.
func (c *dockerContainer) Stop(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	seconds := int(timeout.Seconds())
	if seconds == 0 {
		seconds = 1
	}
	if err := c.api.ContainerStop(ctx, c.id, containertypes.StopOptions{Timeout: &seconds}); err != nil {
		return c.mapErr("stop", err)
	}
	return nil
}

// Remove deletes the container. The handle is invalid afterwards.
func (c *dockerContainer) Remove(ctx context.Context) error {
	if err := c.api.ContainerRemove(ctx, c.id, containertypes.RemoveOptions{}); err != nil {
		return c.mapErr("remove", err)
	}
	return nil
}

// Wait blocks until the container exits and returns its exit code.
func (c *dockerContainer) Wait(ctx context.Context) (int, error) {
	statusCh, errCh := c.api.ContainerWait(ctx, c.id, containertypes.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return -1, c.mapErr("wait for", err)
	case status := <-statusCh:
		if status.Error != nil {
			return int(status.StatusCode), fmt.Errorf("wait for container %s: %s", c.id, status.Error.Message)
		}
		return int(status.StatusCode), nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// Status returns the container status ("running", "exited", ...) from the
// last Reload. It is "" until the first successful Reload; there is no
// automatic refresh.
func (c *dockerContainer) Status() string {
	if c.attrs.ContainerJSONBase == nil || c.attrs.State == nil {
		return ""
	}
	return c.attrs.State.Status
}

// ExitCode returns the exit code from the last Reload. It is only meaningful
// once a Reload has observed the container in a stopped state; check
// InspectedAt and Status to judge freshness.
func (c *dockerContainer) ExitCode() int {
	if c.attrs.ContainerJSONBase == nil || c.attrs.State == nil {
		return 0
	}
	return c.attrs.State.ExitCode
}

// InspectedAt returns the time of the last successful Reload, or the zero
// time if the handle has never been reloaded.
func (c *dockerContainer) InspectedAt() time.Time {
	return c.inspectedAt
}

// mapErr converts engine not-found responses into ContainerNotFoundError.
func (c *dockerContainer) mapErr(op string, err error) error {
	if errdefs.IsNotFound(err) {
		return &ContainerNotFoundError{ID: c.id}
	}
	return fmt.Errorf("%s container %s: %w", op, c.id, err)
}
