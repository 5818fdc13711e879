// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"io"
	"testing"
	"time"

	containertypes "github.com/docker/docker/api/types/container"
)

func runningContainerAPI(id string) *fakeDockerAPI {
	api := newFakeDockerAPI()
	api.containers[id] = containertypes.InspectResponse{
		ContainerJSONBase: &containertypes.ContainerJSONBase{
			State: &containertypes.State{Status: "running"},
		},
	}
	return api
}

func TestContainer_StatusBeforeReload(t *testing.T) {
	t.Parallel()
	c := newDockerContainer(runningContainerAPI("c1"), "c1")

	if c.Status() != "" {
		t.Errorf("Status before Reload = %q, want empty", c.Status())
	}
	if !c.InspectedAt().IsZero() {
		t.Errorf("InspectedAt before Reload = %v, want zero time", c.InspectedAt())
	}
}

func TestContainer_Reload(t *testing.T) {
	t.Parallel()
	api := runningContainerAPI("c1")
	c := newDockerContainer(api, "c1")

	if err := c.Reload(t.Context()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if c.Status() != "running" {
		t.Errorf("Status = %q, want running", c.Status())
	}
	if c.InspectedAt().IsZero() {
		t.Error("InspectedAt still zero after Reload")
	}
}

func TestContainer_Logs(t *testing.T) {
	t.Parallel()
	api := runningContainerAPI("c1")
	api.logsData = "hello\nworld\n"
	c := newDockerContainer(api, "c1")

	since := time.Date(2026, 3, 14, 10, 30, 45, 789000000, time.UTC)
	rc, err := c.Logs(t.Context(), LogsOptions{Timestamps: true, Since: since})
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read logs: %v", err)
	}
	if string(data) != "hello\nworld\n" {
		t.Errorf("logs = %q", data)
	}

	if !api.logsOpts.Timestamps {
		t.Error("Timestamps not forwarded")
	}
	if api.logsOpts.Follow {
		t.Error("Follow set without being requested")
	}
	// Sub-second precision must be truncated to whole Unix seconds.
	if want := "1773484245"; api.logsOpts.Since != want {
		t.Errorf("Since = %q, want %q", api.logsOpts.Since, want)
	}
}

func TestContainer_LogsZeroSinceOmitted(t *testing.T) {
	t.Parallel()
	api := runningContainerAPI("c1")
	c := newDockerContainer(api, "c1")

	rc, err := c.Logs(t.Context(), LogsOptions{})
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	rc.Close()

	if api.logsOpts.Since != "" {
		t.Errorf("Since = %q, want empty for zero time", api.logsOpts.Since)
	}
}

func TestSinceTruncationIdempotent(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 14, 10, 30, 45, 0, time.UTC)
	want := base.Unix()
	for _, nanos := range []int{0, 1, 499999999, 999999999} {
		if got := sinceSeconds(base.Add(time.Duration(nanos))); got != want {
			t.Errorf("sinceSeconds(%d ns) = %d, want %d", nanos, got, want)
		}
	}
}

func TestContainer_KillDefaultSignal(t *testing.T) {
	t.Parallel()
	api := runningContainerAPI("c1")
	c := newDockerContainer(api, "c1")

	if err := c.Kill(t.Context(), ""); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if api.killSignal != "KILL" {
		t.Errorf("signal = %q, want KILL", api.killSignal)
	}

	if err := c.Kill(t.Context(), "TERM"); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if api.killSignal != "TERM" {
		t.Errorf("signal = %q, want TERM", api.killSignal)
	}
}

func TestContainer_StopTimeout(t *testing.T) {
	t.Parallel()
	api := runningContainerAPI("c1")
	c := newDockerContainer(api, "c1")

	if err := c.Stop(t.Context(), 0); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if api.stopTimeout == nil || *api.stopTimeout != 10 {
		t.Errorf("default stop timeout = %v, want 10", api.stopTimeout)
	}

	if err := c.Stop(t.Context(), 3*time.Second); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if api.stopTimeout == nil || *api.stopTimeout != 3 {
		t.Errorf("stop timeout = %v, want 3", api.stopTimeout)
	}

	// A sub-second grace period rounds up to one second instead of
	// truncating to an immediate kill.
	if err := c.Stop(t.Context(), 500*time.Millisecond); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if api.stopTimeout == nil || *api.stopTimeout != 1 {
		t.Errorf("sub-second stop timeout = %v, want 1", api.stopTimeout)
	}
}

func TestContainer_InvalidAfterRemove(t *testing.T) {
	t.Parallel()
	api := runningContainerAPI("c1")
	c := newDockerContainer(api, "c1")

	if err := c.Remove(t.Context()); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"Reload", func() error { return c.Reload(t.Context()) }},
		{"Kill", func() error { return c.Kill(t.Context(), "") }},
		{"Stop", func() error { return c.Stop(t.Context(), 0) }},
		{"Remove", func() error { return c.Remove(t.Context()) }},
		{"Wait", func() error { _, err := c.Wait(t.Context()); return err }},
		{"Logs", func() error { _, err := c.Logs(t.Context(), LogsOptions{}); return err }},
	}
	for _, tt := range tests {
		if err := tt.call(); !errors.Is(err, ErrContainerNotFound) {
			t.Errorf("%s after Remove: err = %v, want ErrContainerNotFound", tt.name, err)
		}
	}

	var notFound *ContainerNotFoundError
	err := c.Reload(t.Context())
	if !errors.As(err, &notFound) || notFound.ID != "c1" {
		t.Errorf("expected ContainerNotFoundError with ID c1, got %#v", err)
	}
}

func TestEngineContainer_AttachesByName(t *testing.T) {
	t.Parallel()
	api := newFakeDockerAPI()
	api.containers["web"] = containertypes.InspectResponse{
		ContainerJSONBase: &containertypes.ContainerJSONBase{
			ID:    "abc123",
			State: &containertypes.State{Status: "running"},
		},
	}
	e := newTestEngine(api, newMockCLIDriver(t, NewMockCommandRecorder()), nil)

	c, err := e.Container(t.Context(), "web")
	if err != nil {
		t.Fatalf("Container: %v", err)
	}
	if c.ID() != "abc123" {
		t.Errorf("ID = %q, want canonical abc123", c.ID())
	}
	if c.Status() != "running" {
		t.Errorf("Status = %q, want running from the initial reload", c.Status())
	}
	if c.InspectedAt().IsZero() {
		t.Error("InspectedAt still zero after attach")
	}
}

func TestEngineContainer_Unknown(t *testing.T) {
	t.Parallel()
	e := newTestEngine(newFakeDockerAPI(), newMockCLIDriver(t, NewMockCommandRecorder()), nil)

	_, err := e.Container(t.Context(), "ghost")
	if !errors.Is(err, ErrContainerNotFound) {
		t.Fatalf("err = %v, want ErrContainerNotFound", err)
	}
}
