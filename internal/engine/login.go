// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// dockerConfigEnv overrides the directory Docker reads credentials from.
const dockerConfigEnv = "DOCKER_CONFIG"

// ambientDockerConfigPath returns the path of the host's Docker credential
// file: $DOCKER_CONFIG/config.json when the variable is set, otherwise
// ~/.docker/config.json. The file is only ever read, never written.
func ambientDockerConfigPath() (string, error) {
	if dir := os.Getenv(dockerConfigEnv); dir != "" {
		return filepath.Join(dir, "config.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".docker", "config.json"), nil
}

// scopedLogin performs a registry login against a private copy of the host's
// credential store, so concurrent pushes cannot corrupt shared credential
// state. It returns the environment overlay that points the engine CLI at the
// scoped store, and a cleanup that discards the store. The ambient credential
// file is inherited read-only and is never mutated.
//
// The password travels over the login process's stdin, never its argv.
func (e *DockerEngine) scopedLogin(ctx context.Context, creds RegistryCredentials) (env map[string]string, cleanup func(), err error) {
	dir, err := os.MkdirTemp("", "repoforge-docker-config-")
	if err != nil {
		return nil, nil, fmt.Errorf("create scoped credential directory: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	ambient, err := ambientDockerConfigPath()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if data, readErr := os.ReadFile(ambient); readErr == nil {
		// Seed the scoped store with the user's existing configuration so
		// credential helpers and other registries keep working.
		if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0o600); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("seed scoped credential store: %w", err)
		}
	}

	env = map[string]string{dockerConfigEnv: dir}

	args := []string{"login", "--username", creds.Username, "--password-stdin"}
	if creds.Registry != "" {
		args = append(args, creds.Registry)
	}

	out, exitCode, runErr := e.cli.run(ctx, env, strings.NewReader(creds.Password), args...)
	if runErr != nil {
		cleanup()
		var unavailable *EngineUnavailableError
		if errors.As(runErr, &unavailable) {
			return nil, nil, runErr
		}
		return nil, nil, &PushFailedError{
			Ref:      creds.Registry,
			ExitCode: exitCode,
			Output:   string(out),
		}
	}

	return env, cleanup, nil
}
