// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	imagetypes "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// fakeDockerAPI is an in-memory dockerAPI double. Method calls are appended
// to calls so tests can assert ordering and synchronicity.
type fakeDockerAPI struct {
	calls []string

	pingErr error

	images    []imagetypes.Summary
	imagesErr error

	inspectImages map[string]imagetypes.InspectResponse

	nextContainerID string
	createErr       error
	startErr        error
	createdConfig   *containertypes.Config
	createdHost     *containertypes.HostConfig
	createdPlatform *ocispec.Platform
	createdName     string

	containers map[string]containertypes.InspectResponse
	removed    map[string]bool

	logsData string
	logsOpts containertypes.LogsOptions

	killSignal  string
	stopTimeout *int

	waitCode int64
	waitErr  error
}

var _ dockerAPI = (*fakeDockerAPI)(nil)

func newFakeDockerAPI() *fakeDockerAPI {
	return &fakeDockerAPI{
		inspectImages: map[string]imagetypes.InspectResponse{},
		containers:    map[string]containertypes.InspectResponse{},
		removed:       map[string]bool{},
	}
}

func (f *fakeDockerAPI) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeDockerAPI) notFound(what string) error {
	return errdefs.NotFound(errors.New("no such " + what))
}

func (f *fakeDockerAPI) Ping(context.Context) (types.Ping, error) {
	f.record("Ping")
	return types.Ping{}, f.pingErr
}

func (f *fakeDockerAPI) ImageList(context.Context, imagetypes.ListOptions) ([]imagetypes.Summary, error) {
	f.record("ImageList")
	return f.images, f.imagesErr
}

func (f *fakeDockerAPI) ImageInspect(_ context.Context, ref string, _ ...client.ImageInspectOption) (imagetypes.InspectResponse, error) {
	f.record("ImageInspect")
	resp, ok := f.inspectImages[ref]
	if !ok {
		return imagetypes.InspectResponse{}, f.notFound("image")
	}
	return resp, nil
}

func (f *fakeDockerAPI) ContainerCreate(_ context.Context, config *containertypes.Config, hostConfig *containertypes.HostConfig, _ *network.NetworkingConfig, platform *ocispec.Platform, name string) (containertypes.CreateResponse, error) {
	f.record("ContainerCreate")
	if f.createErr != nil {
		return containertypes.CreateResponse{}, f.createErr
	}
	f.createdConfig = config
	f.createdHost = hostConfig
	f.createdPlatform = platform
	f.createdName = name
	return containertypes.CreateResponse{ID: f.nextContainerID}, nil
}

func (f *fakeDockerAPI) ContainerStart(_ context.Context, containerID string, _ containertypes.StartOptions) error {
	f.record("ContainerStart")
	return f.startErr
}

func (f *fakeDockerAPI) ContainerInspect(_ context.Context, containerID string) (containertypes.InspectResponse, error) {
	f.record("ContainerInspect")
	resp, ok := f.containers[containerID]
	if !ok || f.removed[containerID] {
		return containertypes.InspectResponse{}, f.notFound("container")
	}
	return resp, nil
}

func (f *fakeDockerAPI) ContainerLogs(_ context.Context, containerID string, opts containertypes.LogsOptions) (io.ReadCloser, error) {
	f.record("ContainerLogs")
	if _, ok := f.containers[containerID]; !ok || f.removed[containerID] {
		return nil, f.notFound("container")
	}
	f.logsOpts = opts
	// Log output arrives multiplexed for non-TTY containers; frame it the way
	// the daemon does.
	var buf bytes.Buffer
	w := stdcopy.NewStdWriter(&buf, stdcopy.Stdout)
	_, _ = w.Write([]byte(f.logsData))
	return io.NopCloser(&buf), nil
}

func (f *fakeDockerAPI) ContainerKill(_ context.Context, containerID, signal string) error {
	f.record("ContainerKill")
	if _, ok := f.containers[containerID]; !ok || f.removed[containerID] {
		return f.notFound("container")
	}
	f.killSignal = signal
	return nil
}

func (f *fakeDockerAPI) ContainerStop(_ context.Context, containerID string, opts containertypes.StopOptions) error {
	f.record("ContainerStop")
	if _, ok := f.containers[containerID]; !ok || f.removed[containerID] {
		return f.notFound("container")
	}
	f.stopTimeout = opts.Timeout
	return nil
}

func (f *fakeDockerAPI) ContainerRemove(_ context.Context, containerID string, _ containertypes.RemoveOptions) error {
	f.record("ContainerRemove")
	if _, ok := f.containers[containerID]; !ok || f.removed[containerID] {
		return f.notFound("container")
	}
	f.removed[containerID] = true
	return nil
}

func (f *fakeDockerAPI) ContainerWait(_ context.Context, containerID string, _ containertypes.WaitCondition) (<-chan containertypes.WaitResponse, <-chan error) {
	f.record("ContainerWait")
	statusCh := make(chan containertypes.WaitResponse, 1)
	errCh := make(chan error, 1)
	if _, ok := f.containers[containerID]; !ok || f.removed[containerID] {
		errCh <- f.notFound("container")
		return statusCh, errCh
	}
	if f.waitErr != nil {
		errCh <- f.waitErr
		return statusCh, errCh
	}
	statusCh <- containertypes.WaitResponse{StatusCode: f.waitCode}
	return statusCh, errCh
}

func (f *fakeDockerAPI) Close() error {
	f.record("Close")
	return nil
}

// newTestEngine assembles a DockerEngine over the fake API and the mock CLI.
func newTestEngine(api *fakeDockerAPI, cli *CLIDriver, creds *RegistryCredentials) *DockerEngine {
	return &DockerEngine{
		api:    api,
		cli:    cli,
		creds:  creds,
		logger: cli.logger,
	}
}
