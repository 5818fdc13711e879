// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEngineUnavailable is the sentinel error wrapped by EngineUnavailableError.
	ErrEngineUnavailable = errors.New("container engine unavailable")

	// ErrBuildFailed is the sentinel error wrapped by BuildFailedError.
	ErrBuildFailed = errors.New("image build failed")

	// ErrPushFailed is the sentinel error wrapped by PushFailedError.
	ErrPushFailed = errors.New("image push failed")

	// ErrImageNotFound is the sentinel error wrapped by ImageNotFoundError.
	ErrImageNotFound = errors.New("image not found")

	// ErrContainerNotFound is the sentinel error wrapped by ContainerNotFoundError.
	ErrContainerNotFound = errors.New("container not found")

	// ErrUnknownEngine is returned by New when no engine is registered under
	// the requested name.
	ErrUnknownEngine = errors.New("unknown container engine")
)

type (
	// EngineUnavailableError is returned when the engine daemon is unreachable
	// or its command-line client is not installed. It is raised eagerly at
	// engine construction or at the start of an operation, never mid-stream.
	EngineUnavailableError struct {
		Engine string
		Reason string
		Cause  error
	}

	// BuildFailedError is returned when the engine ran the build but it exited
	// non-zero. Output holds the tail of the combined build output so callers
	// can display the failure verbatim.
	BuildFailedError struct {
		Tag      string
		ExitCode int
		Output   string
	}

	// PushFailedError is returned when a push (or the login preceding it)
	// was rejected by the engine or the registry.
	PushFailedError struct {
		Ref      string
		ExitCode int
		Output   string
	}

	// ImageNotFoundError is returned when an image reference does not resolve
	// in the engine's store.
	ImageNotFoundError struct {
		Ref string
	}

	// ContainerNotFoundError is returned by container handle operations once
	// the underlying container has been removed or externally deleted.
	ContainerNotFoundError struct {
		ID string
	}
)

// Error implements the error interface.
func (e *EngineUnavailableError) Error() string {
	msg := fmt.Sprintf("container engine %q is not available: %s", e.Engine, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns ErrEngineUnavailable plus the underlying cause so callers
// can use errors.Is on either.
func (e *EngineUnavailableError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrEngineUnavailable, e.Cause}
	}
	return []error{ErrEngineUnavailable}
}

// Error implements the error interface.
func (e *BuildFailedError) Error() string {
	msg := "image build failed"
	if e.Tag != "" {
		msg = fmt.Sprintf("build of %q failed", e.Tag)
	}
	msg += fmt.Sprintf(" (exit code %d)", e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ":\n" + out
	}
	return msg
}

// Unwrap returns ErrBuildFailed for errors.Is compatibility.
func (e *BuildFailedError) Unwrap() error { return ErrBuildFailed }

// Error implements the error interface.
func (e *PushFailedError) Error() string {
	msg := fmt.Sprintf("push of %q failed (exit code %d)", e.Ref, e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ":\n" + out
	}
	return msg
}

// Unwrap returns ErrPushFailed for errors.Is compatibility.
func (e *PushFailedError) Unwrap() error { return ErrPushFailed }

// Error implements the error interface.
func (e *ImageNotFoundError) Error() string {
	return fmt.Sprintf("image %q not found", e.Ref)
}

// Unwrap returns ErrImageNotFound for errors.Is compatibility.
func (e *ImageNotFoundError) Unwrap() error { return ErrImageNotFound }

// Error implements the error interface.
func (e *ContainerNotFoundError) Error() string {
	return fmt.Sprintf("container %q not found", e.ID)
}

// Unwrap returns ErrContainerNotFound for errors.Is compatibility.
func (e *ContainerNotFoundError) Unwrap() error { return ErrContainerNotFound }
