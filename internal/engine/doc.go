// SPDX-License-Identifier: MPL-2.0

// Package engine provides a pluggable abstraction over container engines
// used to build, inspect, push, and run reproducible environment images.
//
// The Engine interface defines one method per engine operation: Build, Images,
// InspectImage, Push, Run, and Container. Build and Push drive the engine's
// command-line client and expose output as a lazy LogStream; the rest use the
// engine's HTTP API. Run returns a Container handle exposing lifecycle
// operations (Reload, Logs, Kill, Stop, Remove, Wait) over the live container.
//
// Engines register themselves by name via Register and are constructed with
// New. The Docker engine is registered by default.
//
// All value objects returned by an engine are read projections of the
// engine's state at call time. The adapter performs no caching or retries of
// its own; callers needing fresh state re-fetch via Reload or InspectImage.
package engine
