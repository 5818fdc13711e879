// SPDX-License-Identifier: MPL-2.0

package engine

import "slices"

type (
	// Image is an immutable read projection of one engine image: its tags and
	// the subset of engine configuration that is meaningful across engines.
	// Images are only created as results of Build, Images, and InspectImage.
	Image struct {
		// Tags are the image's repository tags, in engine order.
		Tags []string `json:"tags"`
		// Config is the image's runtime configuration. Zero-valued for
		// listings that do not include configuration.
		Config ImageConfig `json:"config"`
	}

	// ImageConfig is the engine-agnostic slice of an image's configuration.
	ImageConfig struct {
		User         string            `json:"user,omitempty"`
		Env          []string          `json:"env,omitempty"`
		Entrypoint   []string          `json:"entrypoint,omitempty"`
		Cmd          []string          `json:"cmd,omitempty"`
		WorkingDir   string            `json:"working_dir,omitempty"`
		Labels       map[string]string `json:"labels,omitempty"`
		ExposedPorts []string          `json:"exposed_ports,omitempty"`
	}
)

// HasTag reports whether the image carries the given tag.
func (i Image) HasTag(tag string) bool {
	return slices.Contains(i.Tags, tag)
}
