// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for repoforge.
//
// This package implements the Cobra command hierarchy for the repoforge CLI:
// the root command, image commands (build, push, images, inspect), container
// commands (run, logs, stop, rm), and configuration management.
package cmd
