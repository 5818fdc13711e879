// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type (
	// Engine is the pluggable contract over a container engine. Each method
	// maps to one distinct engine operation; the CLI-vs-API dispatch is fixed
	// per implementation at construction time rather than decided ad hoc.
	//
	// Engines impose no concurrency control of their own: methods are safe to
	// call from independent goroutines only insofar as the underlying engine
	// accepts concurrent requests.
	Engine interface {
		// Name returns the engine name (e.g. "docker").
		Name() string

		// Build builds an image and returns a lazy, line-buffered stream of
		// the combined build output. A non-zero exit from the underlying
		// process surfaces as a BuildFailedError via LogStream.Err.
		Build(ctx context.Context, opts BuildOptions) (*LogStream, error)

		// Images lists all images known to the engine.
		Images(ctx context.Context) ([]Image, error)

		// InspectImage fetches tags and configuration for one image.
		// A reference that does not resolve yields an ImageNotFoundError.
		InspectImage(ctx context.Context, ref ImageRef) (Image, error)

		// Push uploads an image to its registry, streaming output like Build.
		// When registry credentials are configured, the push runs inside a
		// scoped login session that never mutates the ambient credential file.
		Push(ctx context.Context, ref ImageRef) (*LogStream, error)

		// Run starts a detached container and returns a handle immediately,
		// without waiting for the container's command to finish.
		Run(ctx context.Context, opts RunOptions) (Container, error)

		// Container attaches to an existing container by ID or name. The
		// returned handle has already been reloaded once; an unknown ID
		// yields a ContainerNotFoundError.
		Container(ctx context.Context, id string) (Container, error)

		// Close releases the engine's API connection.
		Close() error
	}

	// Container is a thin proxy over a live container identifier. A handle
	// becomes invalid once Remove succeeds or the container is externally
	// deleted; subsequent calls then fail with ContainerNotFoundError.
	Container interface {
		// ID returns the engine's identifier for the container.
		ID() string

		// Reload refreshes the cached attribute snapshot from the engine.
		// Status and ExitCode read that snapshot; there is no automatic
		// invalidation, so call Reload first whenever freshness matters.
		Reload(ctx context.Context) error

		// Logs returns the container's log output. With opts.Follow the
		// reader is a live tail that ends only when the container stops or
		// ctx is cancelled; otherwise it is a finite snapshot. opts.Since is
		// truncated to whole seconds, so lines from the boundary second may
		// be delivered again on a subsequent call.
		Logs(ctx context.Context, opts LogsOptions) (io.ReadCloser, error)

		// Kill sends a signal to the container (default SIGKILL).
		Kill(ctx context.Context, signal string) error

		// Stop stops the container, giving it the timeout as a grace period
		// before the engine kills it.
		Stop(ctx context.Context, timeout time.Duration) error

		// Remove deletes the container from the engine.
		Remove(ctx context.Context) error

		// Wait blocks until the container exits and returns its exit code.
		Wait(ctx context.Context) (int, error)

		// Status returns the container status from the last Reload. The zero
		// value means the handle has never been reloaded.
		Status() string

		// ExitCode returns the exit code from the last Reload. Meaningless
		// until a Reload observed the container in a stopped state.
		ExitCode() int

		// InspectedAt returns the time of the last successful Reload, or the
		// zero time if the handle has never been reloaded. It makes snapshot
		// staleness observable to callers.
		InspectedAt() time.Time
	}

	// RegistryCredentials authenticate pushes against a registry. The zero
	// value means "use whatever ambient credentials exist on the host".
	RegistryCredentials struct {
		Username string
		Password string
		Registry string
	}

	// Options configures engine construction. Fields not understood by a
	// given engine are ignored by it.
	Options struct {
		// Host overrides the environment-derived engine API endpoint.
		Host string
		// APIVersion pins the engine API version instead of negotiating it.
		APIVersion string
		// Credentials enable the scoped login session around Push.
		Credentials *RegistryCredentials
		// ExtraBuildArgs are appended to every build invocation, right before
		// the context path.
		ExtraBuildArgs []string
		// Logger receives debug-level records of engine invocations.
		// Nil means the package default logger.
		Logger *log.Logger
	}

	// Factory constructs an Engine. Construction must fail eagerly with an
	// EngineUnavailableError when the engine daemon is unreachable.
	Factory func(ctx context.Context, opts Options) (Engine, error)
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes an engine constructor available under name. It is meant to
// be called from an implementation's init; registering the same name twice
// panics.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("engine: Register called twice for %q", name))
	}
	registry[name] = factory
}

// Registered returns the sorted names of all registered engines.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs the engine registered under name.
func New(ctx context.Context, name string, opts Options) (Engine, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %v)", ErrUnknownEngine, name, Registered())
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	opts.ExtraBuildArgs = slices.Clone(opts.ExtraBuildArgs)
	return factory(ctx, opts)
}
