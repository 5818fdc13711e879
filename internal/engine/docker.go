// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	imagetypes "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// EngineDocker is the registry name of the Docker engine.
const EngineDocker = "docker"

func init() {
	Register(EngineDocker, func(ctx context.Context, opts Options) (Engine, error) {
		return NewDockerEngine(ctx, opts)
	})
}

type (
	// dockerAPI is the slice of the Docker HTTP API client this package uses.
	// *client.Client satisfies it; tests substitute a recording fake.
	dockerAPI interface {
		Ping(ctx context.Context) (types.Ping, error)
		ImageList(ctx context.Context, options imagetypes.ListOptions) ([]imagetypes.Summary, error)
		ImageInspect(ctx context.Context, ref string, opts ...client.ImageInspectOption) (imagetypes.InspectResponse, error)
		ContainerCreate(ctx context.Context, config *containertypes.Config, hostConfig *containertypes.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (containertypes.CreateResponse, error)
		ContainerStart(ctx context.Context, containerID string, options containertypes.StartOptions) error
		ContainerInspect(ctx context.Context, containerID string) (containertypes.InspectResponse, error)
		ContainerLogs(ctx context.Context, containerID string, options containertypes.LogsOptions) (io.ReadCloser, error)
		ContainerKill(ctx context.Context, containerID, signal string) error
		ContainerStop(ctx context.Context, containerID string, options containertypes.StopOptions) error
		ContainerRemove(ctx context.Context, containerID string, options containertypes.RemoveOptions) error
		ContainerWait(ctx context.Context, containerID string, condition containertypes.WaitCondition) (<-chan containertypes.WaitResponse, <-chan error)
		Close() error
	}

	// DockerEngine implements Engine against Docker: buildx and the docker
	// CLI for the streaming operations (Build, Push, login), the HTTP API for
	// everything else (Images, InspectImage, Run, container lifecycle).
	DockerEngine struct {
		api            dockerAPI
		cli            *CLIDriver
		creds          *RegistryCredentials
		extraBuildArgs []string
		logger         *log.Logger
	}
)

// NewDockerEngine connects to the Docker daemon using environment-derived
// parameters (DOCKER_HOST and friends) overlaid with any overrides from opts,
// and verifies the daemon is reachable. An unreachable daemon is an
// EngineUnavailableError raised here, not later.
func NewDockerEngine(ctx context.Context, opts Options) (*DockerEngine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	clientOpts := []client.Opt{client.FromEnv}
	if opts.Host != "" {
		clientOpts = append(clientOpts, client.WithHost(opts.Host))
	}
	if opts.APIVersion != "" {
		clientOpts = append(clientOpts, client.WithVersion(opts.APIVersion))
	} else {
		clientOpts = append(clientOpts, client.WithAPIVersionNegotiation())
	}

	api, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, &EngineUnavailableError{
			Engine: EngineDocker,
			Reason: "failed to initialize the Docker API client",
			Cause:  err,
		}
	}
	if _, err := api.Ping(ctx); err != nil {
		_ = api.Close()
		return nil, &EngineUnavailableError{
			Engine: EngineDocker,
			Reason: "check that the Docker daemon is running on the host",
			Cause:  err,
		}
	}

	return &DockerEngine{
		api:            api,
		cli:            NewCLIDriver(EngineDocker, "docker", WithCLILogger(logger)),
		creds:          opts.Credentials,
		extraBuildArgs: opts.ExtraBuildArgs,
		logger:         logger,
	}, nil
}

// Name returns the engine name.
func (e *DockerEngine) Name() string { return EngineDocker }

// Close releases the API connection.
func (e *DockerEngine) Close() error { return e.api.Close() }

// Version returns the Docker server version, probed via the CLI.
func (e *DockerEngine) Version(ctx context.Context) (string, error) {
	out, _, err := e.cli.run(ctx, nil, nil, "version", "--format", "{{.Server.Version}}")
	if err != nil {
		return "", fmt.Errorf("get docker version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Build runs `docker buildx build` and returns the lazy output stream.
// When opts.ContextArchive is set the archive is first extracted into a
// scoped temporary directory, which is removed once the stream ends,
// whether the build succeeds, fails, or the stream is closed early.
func (e *DockerEngine) Build(ctx context.Context, opts BuildOptions) (*LogStream, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := e.cli.require(); err != nil {
		return nil, err
	}

	contextPath := opts.ContextDir
	var cleanups []func()
	if opts.ContextArchive != nil {
		dir, cleanup, err := extractContextArchive(opts.ContextArchive)
		if err != nil {
			return nil, err
		}
		contextPath = dir
		cleanups = append(cleanups, cleanup)
	}

	args := e.buildCommandArgs(opts, contextPath)

	finish := func(exitCode int, tail string) error {
		return &BuildFailedError{Tag: string(opts.Tag), ExitCode: exitCode, Output: tail}
	}
	return e.cli.stream(ctx, nil, args, finish, cleanups...)
}

// buildCommandArgs renders the fixed buildx argument grammar:
// buildx build --progress plain --load [options...] [extra args...] <context>
func (e *DockerEngine) buildCommandArgs(opts BuildOptions, contextPath string) []string {
	args := []string{"buildx", "build", "--progress", "plain", "--load"}

	for _, k := range sortedKeys(opts.BuildArgs) {
		args = append(args, "--build-arg", k+"="+opts.BuildArgs[k])
	}
	for _, cf := range opts.CacheFrom {
		args = append(args, "--cache-from", string(cf))
	}
	if opts.Dockerfile != "" {
		args = append(args, "--file", opts.Dockerfile)
	}
	if opts.Tag != "" {
		args = append(args, "--tag", string(opts.Tag))
	}
	for _, k := range sortedKeys(opts.Labels) {
		args = append(args, "--label", k+"="+opts.Labels[k])
	}
	if opts.Platform != "" {
		args = append(args, "--platform", opts.Platform)
	}

	// Extra args go right before the context path.
	args = append(args, e.extraBuildArgs...)
	args = append(args, opts.ExtraArgs...)

	return append(args, contextPath)
}

// Images lists all images known to the engine. The listing carries tags only;
// use InspectImage for configuration.
func (e *DockerEngine) Images(ctx context.Context) ([]Image, error) {
	summaries, err := e.api.ImageList(ctx, imagetypes.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	images := make([]Image, 0, len(summaries))
	for _, s := range summaries {
		images = append(images, Image{Tags: s.RepoTags})
	}
	return images, nil
}

// InspectImage fetches tags and configuration for one image.
func (e *DockerEngine) InspectImage(ctx context.Context, ref ImageRef) (Image, error) {
	if err := ref.Validate(); err != nil {
		return Image{}, err
	}
	resp, err := e.api.ImageInspect(ctx, string(ref))
	if err != nil {
		if errdefs.IsNotFound(err) {
			return Image{}, &ImageNotFoundError{Ref: string(ref)}
		}
		return Image{}, fmt.Errorf("inspect image %q: %w", ref, err)
	}

	img := Image{Tags: resp.RepoTags}
	if cfg := resp.Config; cfg != nil {
		img.Config = ImageConfig{
			User:       cfg.User,
			Env:        cfg.Env,
			Entrypoint: cfg.Entrypoint,
			Cmd:        cfg.Cmd,
			WorkingDir: cfg.WorkingDir,
			Labels:     cfg.Labels,
		}
		for port := range cfg.ExposedPorts {
			img.Config.ExposedPorts = append(img.Config.ExposedPorts, port)
		}
		sort.Strings(img.Config.ExposedPorts)
	}
	return img, nil
}

// Push uploads ref to its registry. With configured credentials the push runs
// inside a scoped login session whose credential store is discarded
// afterwards regardless of outcome; without them, whatever ambient
// credentials exist on the host apply.
func (e *DockerEngine) Push(ctx context.Context, ref ImageRef) (*LogStream, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if err := e.cli.require(); err != nil {
		return nil, err
	}

	var (
		env      map[string]string
		cleanups []func()
	)
	if e.creds != nil && e.creds.Username != "" {
		loginEnv, cleanup, err := e.scopedLogin(ctx, *e.creds)
		if err != nil {
			return nil, err
		}
		env = loginEnv
		cleanups = append(cleanups, cleanup)
	}

	finish := func(exitCode int, tail string) error {
		return &PushFailedError{Ref: string(ref), ExitCode: exitCode, Output: tail}
	}
	return e.cli.stream(ctx, env, []string{"push", string(ref)}, finish, cleanups...)
}

// Run starts a detached container and returns its handle without waiting for
// the container's command to finish.
func (e *DockerEngine) Run(ctx context.Context, opts RunOptions) (Container, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	config := &containertypes.Config{
		Image: string(opts.Image),
		Cmd:   opts.Command,
		Env:   envList(opts.Env),
	}

	hostConfig := &containertypes.HostConfig{
		AutoRemove:      opts.AutoRemove,
		PublishAllPorts: opts.PublishAllPorts,
		ExtraHosts:      opts.ExtraHosts,
	}
	for _, v := range opts.Volumes {
		hostConfig.Binds = append(hostConfig.Binds, v.String())
	}

	if len(opts.Ports) > 0 {
		exposed, bindings, err := natBindings(opts.Ports)
		if err != nil {
			return nil, err
		}
		config.ExposedPorts = exposed
		hostConfig.PortBindings = bindings
	}

	var platform *ocispec.Platform
	if opts.Platform != "" {
		p, err := ParsePlatform(opts.Platform)
		if err != nil {
			return nil, err
		}
		platform = &p
	}

	created, err := e.api.ContainerCreate(ctx, config, hostConfig, nil, platform, opts.Name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, &ImageNotFoundError{Ref: string(opts.Image)}
		}
		return nil, fmt.Errorf("create container from %q: %w", opts.Image, err)
	}

	if err := e.api.ContainerStart(ctx, created.ID, containertypes.StartOptions{}); err != nil {
		// The create succeeded, so reclaim the container instead of leaving
		// it behind in "created" state.
		if rmErr := e.api.ContainerRemove(ctx, created.ID, containertypes.RemoveOptions{Force: true}); rmErr != nil {
			e.logger.Debug("failed to remove unstarted container", "id", created.ID, "error", rmErr)
		}
		return nil, fmt.Errorf("start container %s: %w", created.ID, err)
	}

	e.logger.Debug("started container", "image", opts.Image, "id", created.ID)
	return newDockerContainer(e.api, created.ID), nil
}

// Container attaches to an existing container by ID or name. The handle is
// reloaded once so Status and ExitCode are immediately meaningful.
func (e *DockerEngine) Container(ctx context.Context, id string) (Container, error) {
	c := newDockerContainer(e.api, id)
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	// Callers may pass a name; the handle adopts the canonical ID.
	if c.attrs.ContainerJSONBase != nil && c.attrs.ID != "" {
		c.id = c.attrs.ID
	}
	return c, nil
}

// natBindings translates typed port mappings into the engine's exposure set
// and host bindings.
func natBindings(ports []PortMapping) (nat.PortSet, nat.PortMap, error) {
	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, p := range ports {
		proto := p.Protocol
		if proto == "" {
			proto = PortProtocolTCP
		}
		port, err := nat.NewPort(string(proto), strconv.Itoa(int(p.ContainerPort)))
		if err != nil {
			return nil, nil, &InvalidPortMappingError{Value: p, FieldErrs: []error{err}}
		}
		exposed[port] = struct{}{}
		bindings[port] = append(bindings[port], nat.PortBinding{
			HostPort: strconv.Itoa(int(p.HostPort)),
		})
	}
	return exposed, bindings, nil
}
