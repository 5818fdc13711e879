// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with TOML as the file format.
//
// Configuration is loaded from ~/.config/repoforge/config.toml (or XDG equivalent on Linux,
// ~/Library/Application Support/repoforge/config.toml on macOS, %APPDATA%\repoforge\config.toml
// on Windows). Every key can be overridden through the environment with a REPOFORGE_ prefix,
// nested keys joined with underscores (e.g. REPOFORGE_REGISTRY_PASSWORD), which is the
// recommended channel for credentials.
package config
