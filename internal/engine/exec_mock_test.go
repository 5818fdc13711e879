// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

type (
	// MockCommandRecorder captures arguments passed to exec.Command for
	// verification. It uses the TestHelperProcess pattern to simulate
	// command execution.
	MockCommandRecorder struct {
		// Invocations records each call to the mock exec command.
		Invocations []MockInvocation
		// ExitCode is the exit code to return (0 = success).
		ExitCode int
		// Stdout is the output to write to stdout.
		Stdout string
		// Stderr is the output to write to stderr.
		Stderr string
		// FailOnSubcommand makes only invocations whose first argument
		// matches fail with exit code 1.
		FailOnSubcommand string
	}

	// MockInvocation is a single recorded exec invocation. Cmd is the
	// returned exec.Cmd, so tests can inspect the environment the driver
	// applied after creation.
	MockInvocation struct {
		Name string
		Args []string
		Cmd  *exec.Cmd
	}
)

// NewMockCommandRecorder creates a recorder with default settings (success,
// no output).
func NewMockCommandRecorder() *MockCommandRecorder {
	return &MockCommandRecorder{}
}

// CommandFunc returns an ExecCommandFunc that records invocations and runs
// the helper process instead of a real engine binary.
func (m *MockCommandRecorder) CommandFunc(t *testing.T) ExecCommandFunc {
	t.Helper()
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		exitCode := m.ExitCode
		if m.FailOnSubcommand != "" && len(args) > 0 && args[0] == m.FailOnSubcommand {
			exitCode = 1
		}

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		cmd := exec.Command(os.Args[0], cs...) //nolint:noctx // helper process
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", exitCode),
			"GO_HELPER_STDOUT=" + m.Stdout,
			"GO_HELPER_STDERR=" + m.Stderr,
		}

		m.Invocations = append(m.Invocations, MockInvocation{Name: name, Args: args, Cmd: cmd})
		return cmd
	}
}

// LastInvocation returns the most recent invocation, or nil if none.
func (m *MockCommandRecorder) LastInvocation() *MockInvocation {
	if len(m.Invocations) == 0 {
		return nil
	}
	return &m.Invocations[len(m.Invocations)-1]
}

// LastArgs returns the arguments of the most recent invocation.
func (m *MockCommandRecorder) LastArgs() []string {
	if inv := m.LastInvocation(); inv != nil {
		return inv.Args
	}
	return nil
}

// HasArg reports whether the last invocation contains arg.
func (m *MockCommandRecorder) HasArg(arg string) bool {
	return slices.Contains(m.LastArgs(), arg)
}

// HasArgPair reports whether the last invocation contains the flag-value pair.
func (m *MockCommandRecorder) HasArgPair(flag, value string) bool {
	args := m.LastArgs()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

// AssertArgsContainAll verifies that the last invocation args contain all
// expected strings.
func (m *MockCommandRecorder) AssertArgsContainAll(t *testing.T, expected []string) {
	t.Helper()
	argsStr := strings.Join(m.LastArgs(), " ")
	for _, exp := range expected {
		if !strings.Contains(argsStr, exp) {
			t.Errorf("expected args to contain %q, got: %v", exp, m.LastArgs())
		}
	}
}

// newMockCLIDriver returns a CLIDriver whose binary resolves and whose exec
// layer is the recorder.
func newMockCLIDriver(t *testing.T, recorder *MockCommandRecorder) *CLIDriver {
	t.Helper()
	return &CLIDriver{
		engineName: EngineDocker,
		binaryPath: "/usr/bin/docker",
		execCmd:    recorder.CommandFunc(t),
		logger:     log.New(io.Discard),
	}
}

// newMissingCLIDriver returns a CLIDriver for a binary that is not installed.
func newMissingCLIDriver() *CLIDriver {
	return &CLIDriver{
		engineName: EngineDocker,
		binaryPath: "",
		execCmd:    exec.CommandContext,
		logger:     log.New(io.Discard),
	}
}

// TestHelperProcess simulates engine CLI execution for the mock recorder.
// It is not a real test; the recorder re-invokes the test binary with
// GO_WANT_HELPER_PROCESS set.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	if stdout := os.Getenv("GO_HELPER_STDOUT"); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	if stderr := os.Getenv("GO_HELPER_STDERR"); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}

	exitCode := 0
	if code := os.Getenv("GO_HELPER_EXIT_CODE"); code != "" {
		fmt.Sscanf(code, "%d", &exitCode)
	}
	os.Exit(exitCode)
}
