// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/distribution/reference"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

const (
	// PortProtocolTCP is the TCP transport protocol for port mappings.
	PortProtocolTCP PortProtocol = "tcp"
	// PortProtocolUDP is the UDP transport protocol for port mappings.
	PortProtocolUDP PortProtocol = "udp"
)

var (
	// ErrInvalidImageRef is the sentinel error wrapped by InvalidImageRefError.
	ErrInvalidImageRef = errors.New("invalid image reference")

	// ErrInvalidPortProtocol is the sentinel error wrapped by InvalidPortProtocolError.
	ErrInvalidPortProtocol = errors.New("invalid port protocol")

	// ErrInvalidPortMapping is the sentinel error wrapped by InvalidPortMappingError.
	ErrInvalidPortMapping = errors.New("invalid port mapping")

	// ErrInvalidVolumeMount is the sentinel error wrapped by InvalidVolumeMountError.
	ErrInvalidVolumeMount = errors.New("invalid volume mount")

	// ErrInvalidBuildContext is the sentinel error wrapped by InvalidBuildContextError.
	ErrInvalidBuildContext = errors.New("invalid build context")

	// ErrInvalidPlatform is the sentinel error wrapped by InvalidPlatformError.
	ErrInvalidPlatform = errors.New("invalid platform")
)

type (
	// ImageRef is a named image reference ("repo:tag" or "registry/repo@digest").
	// The zero value is invalid.
	ImageRef string

	// InvalidImageRefError is returned when an ImageRef does not parse as a
	// normalized named reference.
	InvalidImageRefError struct {
		Value ImageRef
		Cause error
	}

	// PortProtocol represents a network transport protocol for port mappings.
	// The zero value ("") is valid and means "default to tcp".
	PortProtocol string

	// InvalidPortProtocolError is returned when a PortProtocol is not a recognized protocol.
	InvalidPortProtocolError struct {
		Value PortProtocol
	}

	// PortMapping maps a host port to a container port.
	PortMapping struct {
		HostPort      uint16
		ContainerPort uint16
		Protocol      PortProtocol
	}

	// InvalidPortMappingError is returned when a PortMapping has one or more
	// invalid fields. It wraps the individual field errors for inspection.
	InvalidPortMappingError struct {
		Value     PortMapping
		FieldErrs []error
	}

	// VolumeMount binds a host path into the container filesystem.
	VolumeMount struct {
		HostPath      string
		ContainerPath string
		ReadOnly      bool
	}

	// InvalidVolumeMountError is returned when a VolumeMount has one or more
	// invalid fields.
	InvalidVolumeMountError struct {
		Value     VolumeMount
		FieldErrs []error
	}

	// InvalidBuildContextError is returned when BuildOptions specify both or
	// neither of the two context sources.
	InvalidBuildContextError struct {
		Reason string
	}

	// InvalidPlatformError is returned when a platform string does not parse
	// as "os/arch[/variant]".
	InvalidPlatformError struct {
		Value string
	}

	// BuildOptions configures one image build. Exactly one of ContextDir and
	// ContextArchive must be set: a filesystem path, or a tar stream that is
	// extracted to a scoped temporary directory (removed on every exit path)
	// before invocation.
	BuildOptions struct {
		// Tag names the built image. Optional.
		Tag ImageRef
		// Dockerfile is the path of the Dockerfile, relative to the context
		// unless absolute. Empty means the engine's default.
		Dockerfile string
		// ContextDir is the build context directory.
		ContextDir string
		// ContextArchive is a tar stream holding the build context.
		ContextArchive io.Reader
		// BuildArgs are build-time variables, rendered as repeated
		// --build-arg flags in sorted key order.
		BuildArgs map[string]string
		// CacheFrom lists images to use as cache sources.
		CacheFrom []ImageRef
		// Labels are applied to the built image, in sorted key order.
		Labels map[string]string
		// Platform selects the target platform ("os/arch[/variant]"). Optional.
		Platform string
		// ExtraArgs are placed right before the context path, after all
		// engine-level extra args.
		ExtraArgs []string
	}

	// RunOptions configures one detached container run.
	RunOptions struct {
		// Image is the image to run. Required.
		Image ImageRef
		// Command overrides the image's default command. Optional.
		Command []string
		// Env contains environment variables for the container.
		Env map[string]string
		// Ports are explicit host-to-container port mappings.
		Ports []PortMapping
		// PublishAllPorts publishes every exposed port to a random host port.
		PublishAllPorts bool
		// AutoRemove asks the engine to delete the container once it exits.
		// Note that an auto-removed container invalidates its handle.
		AutoRemove bool
		// Volumes are bind mounts into the container.
		Volumes []VolumeMount
		// ExtraHosts are additional host-to-IP mappings
		// (e.g. "host.docker.internal:host-gateway").
		ExtraHosts []string
		// Platform selects the platform of the image to run. Optional.
		Platform string
		// Name names the container. Empty lets the engine pick one.
		Name string
	}

	// LogsOptions configures a Container.Logs call.
	LogsOptions struct {
		// Follow keeps the reader open, tailing new output until the
		// container stops or the context is cancelled.
		Follow bool
		// Timestamps prefixes each line with its timestamp.
		Timestamps bool
		// Since limits output to lines logged at or after this time. The
		// engine only accepts whole seconds, so the value is truncated;
		// callers must tolerate seeing lines from the boundary second again.
		Since time.Time
	}
)

// Error implements the error interface.
func (e *InvalidImageRefError) Error() string {
	return fmt.Sprintf("invalid image reference %q: %v", e.Value, e.Cause)
}

// Unwrap returns ErrInvalidImageRef plus the parse error for errors.Is compatibility.
func (e *InvalidImageRefError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrInvalidImageRef, e.Cause}
	}
	return []error{ErrInvalidImageRef}
}

// String returns the string representation of the ImageRef.
func (r ImageRef) String() string { return string(r) }

// Validate returns an error if the reference does not parse as a normalized
// named reference (the same grammar the engine itself applies).
func (r ImageRef) Validate() error {
	if strings.TrimSpace(string(r)) == "" {
		return &InvalidImageRefError{Value: r, Cause: errors.New("must be non-empty")}
	}
	if _, err := reference.ParseNormalizedNamed(string(r)); err != nil {
		return &InvalidImageRefError{Value: r, Cause: err}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidPortProtocolError) Error() string {
	return fmt.Sprintf("invalid port protocol %q (valid: tcp, udp)", e.Value)
}

// Unwrap returns ErrInvalidPortProtocol for errors.Is compatibility.
func (e *InvalidPortProtocolError) Unwrap() error { return ErrInvalidPortProtocol }

// Validate returns an error if the PortProtocol is not one of the defined
// protocols. The zero value ("") is valid and treated as tcp.
func (p PortProtocol) Validate() error {
	switch p {
	case PortProtocolTCP, PortProtocolUDP, "":
		return nil
	default:
		return &InvalidPortProtocolError{Value: p}
	}
}

// String returns the string representation of the PortProtocol.
func (p PortProtocol) String() string { return string(p) }

// Error implements the error interface.
func (e *InvalidPortMappingError) Error() string {
	return fmt.Sprintf("invalid port mapping %d:%d/%s: %d field error(s)",
		e.Value.HostPort, e.Value.ContainerPort, e.Value.Protocol, len(e.FieldErrs))
}

// Unwrap returns ErrInvalidPortMapping for errors.Is compatibility.
func (e *InvalidPortMappingError) Unwrap() error { return ErrInvalidPortMapping }

// Validate returns an error if any field of the PortMapping is invalid.
func (p PortMapping) Validate() error {
	var errs []error
	if p.HostPort == 0 {
		errs = append(errs, fmt.Errorf("host port must be greater than zero"))
	}
	if p.ContainerPort == 0 {
		errs = append(errs, fmt.Errorf("container port must be greater than zero"))
	}
	if err := p.Protocol.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidPortMappingError{Value: p, FieldErrs: errs}
	}
	return nil
}

// String returns the port mapping in "host:container/protocol" format,
// defaulting to tcp when the protocol is empty.
func (p PortMapping) String() string {
	proto := p.Protocol
	if proto == "" {
		proto = PortProtocolTCP
	}
	return fmt.Sprintf("%d:%d/%s", p.HostPort, p.ContainerPort, proto)
}

// ParsePortMapping parses "hostPort:containerPort[/protocol]" into a
// PortMapping and validates the result.
func ParsePortMapping(s string) (PortMapping, error) {
	var mapping PortMapping

	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return mapping, fmt.Errorf("%w: %q must contain ':' separator", ErrInvalidPortMapping, s)
	}

	hostPort, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return mapping, fmt.Errorf("%w: host port %q: %v", ErrInvalidPortMapping, parts[0], err)
	}
	mapping.HostPort = uint16(hostPort)

	containerParts := strings.SplitN(parts[1], "/", 2)
	containerPort, err := strconv.ParseUint(containerParts[0], 10, 16)
	if err != nil {
		return mapping, fmt.Errorf("%w: container port %q: %v", ErrInvalidPortMapping, containerParts[0], err)
	}
	mapping.ContainerPort = uint16(containerPort)

	if len(containerParts) == 2 {
		mapping.Protocol = PortProtocol(containerParts[1])
	}

	if err := mapping.Validate(); err != nil {
		return mapping, err
	}
	return mapping, nil
}

// Error implements the error interface.
func (e *InvalidVolumeMountError) Error() string {
	return fmt.Sprintf("invalid volume mount %s:%s: %d field error(s)",
		e.Value.HostPath, e.Value.ContainerPath, len(e.FieldErrs))
}

// Unwrap returns ErrInvalidVolumeMount for errors.Is compatibility.
func (e *InvalidVolumeMountError) Unwrap() error { return ErrInvalidVolumeMount }

// Validate returns an error if any field of the VolumeMount is invalid.
func (v VolumeMount) Validate() error {
	var errs []error
	if strings.TrimSpace(v.HostPath) == "" {
		errs = append(errs, fmt.Errorf("host path must be non-empty"))
	}
	if strings.TrimSpace(v.ContainerPath) == "" {
		errs = append(errs, fmt.Errorf("container path must be non-empty"))
	}
	if len(errs) > 0 {
		return &InvalidVolumeMountError{Value: v, FieldErrs: errs}
	}
	return nil
}

// String returns the volume mount in "host:container[:ro]" format.
func (v VolumeMount) String() string {
	s := v.HostPath + ":" + v.ContainerPath
	if v.ReadOnly {
		s += ":ro"
	}
	return s
}

// ParseVolumeMount parses "hostPath:containerPath[:ro]" into a VolumeMount
// and validates the result.
func ParseVolumeMount(s string) (VolumeMount, error) {
	var mount VolumeMount

	parts := strings.Split(s, ":")
	if len(parts) >= 1 {
		mount.HostPath = parts[0]
	}
	if len(parts) >= 2 {
		mount.ContainerPath = parts[1]
	}
	if len(parts) >= 3 {
		for opt := range strings.SplitSeq(parts[2], ",") {
			if opt == "ro" {
				mount.ReadOnly = true
			}
		}
	}

	if err := mount.Validate(); err != nil {
		return mount, err
	}
	return mount, nil
}

// Error implements the error interface.
func (e *InvalidBuildContextError) Error() string {
	return "invalid build context: " + e.Reason
}

// Unwrap returns ErrInvalidBuildContext for errors.Is compatibility.
func (e *InvalidBuildContextError) Unwrap() error { return ErrInvalidBuildContext }

// Error implements the error interface.
func (e *InvalidPlatformError) Error() string {
	return fmt.Sprintf("invalid platform %q (expected os/arch[/variant])", e.Value)
}

// Unwrap returns ErrInvalidPlatform for errors.Is compatibility.
func (e *InvalidPlatformError) Unwrap() error { return ErrInvalidPlatform }

// Validate returns an error if the BuildOptions specify an ambiguous context
// or any typed field is invalid.
func (o BuildOptions) Validate() error {
	var errs []error

	switch {
	case o.ContextDir == "" && o.ContextArchive == nil:
		errs = append(errs, &InvalidBuildContextError{Reason: "either ContextDir or ContextArchive is required"})
	case o.ContextDir != "" && o.ContextArchive != nil:
		errs = append(errs, &InvalidBuildContextError{Reason: "ContextDir and ContextArchive are mutually exclusive"})
	}

	if o.Tag != "" {
		if err := o.Tag.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, cf := range o.CacheFrom {
		if err := cf.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if o.Platform != "" {
		if _, err := ParsePlatform(o.Platform); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate returns an error if any typed field of the RunOptions is invalid.
func (o RunOptions) Validate() error {
	var errs []error

	if err := o.Image.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, p := range o.Ports {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, v := range o.Volumes {
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if o.Platform != "" {
		if _, err := ParsePlatform(o.Platform); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ParsePlatform parses "os/arch[/variant]" into an OCI platform description.
func ParsePlatform(s string) (ocispec.Platform, error) {
	parts := strings.Split(s, "/")
	for _, p := range parts {
		if p == "" {
			return ocispec.Platform{}, &InvalidPlatformError{Value: s}
		}
	}
	switch len(parts) {
	case 2:
		return ocispec.Platform{OS: parts[0], Architecture: parts[1]}, nil
	case 3:
		return ocispec.Platform{OS: parts[0], Architecture: parts[1], Variant: parts[2]}, nil
	default:
		return ocispec.Platform{}, &InvalidPlatformError{Value: s}
	}
}

// sortedKeys returns the keys of m in sorted order, so that generated
// command lines and API payloads are deterministic.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// envList renders an environment map as sorted KEY=VALUE pairs.
func envList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for _, k := range sortedKeys(env) {
		list = append(list, k+"="+env[k])
	}
	return list
}

// sinceSeconds truncates t to whole Unix seconds, the only resolution the
// engine accepts for log filters. Truncation is idempotent: every instant
// within the same second maps to the same value.
func sinceSeconds(t time.Time) int64 {
	return t.Unix()
}
