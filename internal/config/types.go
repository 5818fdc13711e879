// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidEngineName is returned when an EngineName value is empty or whitespace-only.
	ErrInvalidEngineName = errors.New("invalid engine name")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidRegistryConfig is the sentinel error wrapped by InvalidRegistryConfigError.
	ErrInvalidRegistryConfig = errors.New("invalid registry config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// EngineName selects the container engine implementation. Membership in
	// the set of registered engines is checked at engine construction, not
	// here; config only rejects values no engine could ever match.
	EngineName string

	// InvalidEngineNameError is returned when an EngineName value is empty or
	// whitespace-only. It wraps ErrInvalidEngineName for errors.Is() compatibility.
	InvalidEngineNameError struct {
		Value EngineName
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidRegistryConfigError is returned when a RegistryConfig has invalid fields.
	// It wraps ErrInvalidRegistryConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidRegistryConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Engine specifies which container engine to use (e.g. "docker").
		Engine EngineName `json:"engine" toml:"engine" mapstructure:"engine"`
		// Host overrides the environment-derived engine API endpoint.
		Host string `json:"host,omitempty" toml:"host,omitempty" mapstructure:"host"`
		// APIVersion pins the engine API version instead of negotiating it.
		APIVersion string `json:"api_version,omitempty" toml:"api_version,omitempty" mapstructure:"api_version"`
		// Registry configures push authentication.
		Registry RegistryConfig `json:"registry" toml:"registry" mapstructure:"registry"`
		// Build configures image builds.
		Build BuildConfig `json:"build" toml:"build" mapstructure:"build"`
		// UI configures the command-line interface.
		UI UIConfig `json:"ui" toml:"ui" mapstructure:"ui"`
	}

	// RegistryConfig configures push authentication. All fields empty means
	// "use whatever ambient credentials exist on the host".
	RegistryConfig struct {
		// Server is the registry hostname; empty means the engine's default registry.
		Server string `json:"server,omitempty" toml:"server,omitempty" mapstructure:"server"`
		// Username enables the scoped login session around pushes.
		Username string `json:"username,omitempty" toml:"username,omitempty" mapstructure:"username"`
		// Password authenticates the login session. Prefer supplying it via
		// the REPOFORGE_REGISTRY_PASSWORD environment variable over the file.
		Password string `json:"password,omitempty" toml:"password,omitempty" mapstructure:"password"`
	}

	// BuildConfig configures image builds.
	BuildConfig struct {
		// ExtraArgs are appended to every build invocation, right before the
		// context path.
		ExtraArgs []string `json:"extra_args" toml:"extra_args" mapstructure:"extra_args"`
		// Platform is the default target platform ("os/arch[/variant]");
		// empty means the engine's native platform.
		Platform string `json:"platform,omitempty" toml:"platform,omitempty" mapstructure:"platform"`
		// CacheFrom lists default images to use as build cache sources.
		CacheFrom []string `json:"cache_from" toml:"cache_from" mapstructure:"cache_from"`
	}

	// UIConfig configures the command-line interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" toml:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug-level logging
		Verbose bool `json:"verbose" toml:"verbose" mapstructure:"verbose"`
	}
)

// Error implements the error interface for InvalidEngineNameError.
func (e *InvalidEngineNameError) Error() string {
	return fmt.Sprintf("invalid engine name %q: must be non-empty", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidEngineNameError) Unwrap() error { return ErrInvalidEngineName }

// String returns the string representation of the EngineName.
func (n EngineName) String() string { return string(n) }

// IsValid returns whether the EngineName is valid.
// A valid name must be non-empty and not whitespace-only.
func (n EngineName) IsValid() (bool, []error) {
	if strings.TrimSpace(string(n)) == "" {
		return false, []error{&InvalidEngineNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidRegistryConfigError.
func (e *InvalidRegistryConfigError) Error() string {
	return fmt.Sprintf("invalid registry config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidRegistryConfig for errors.Is() compatibility.
func (e *InvalidRegistryConfigError) Unwrap() error { return ErrInvalidRegistryConfig }

// IsValid returns whether the RegistryConfig has valid fields.
// A password without a username cannot be used for any login.
func (c RegistryConfig) IsValid() (bool, []error) {
	var errs []error
	if c.Password != "" && c.Username == "" {
		errs = append(errs, fmt.Errorf("registry password set without a username"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidRegistryConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// HasCredentials reports whether the config carries an explicit username,
// which is what enables the scoped login session around pushes.
func (c RegistryConfig) HasCredentials() bool {
	return c.Username != ""
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to Engine.IsValid(), Registry.IsValid(), and UI ColorScheme
// validation; bool fields need no validation.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Engine.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Registry.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Engine: "docker",
		Build: BuildConfig{
			ExtraArgs: []string{},
			CacheFrom: []string{},
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
