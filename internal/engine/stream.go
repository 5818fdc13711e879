// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"bufio"
	"errors"
	"iter"
	"os"
	"os/exec"
)

// maxOutputTail bounds how much combined output a LogStream retains for
// failure diagnostics.
const maxOutputTail = 64 * 1024

type (
	// finishFunc converts a non-zero subprocess exit into the operation's
	// typed failure error, given the retained output tail.
	finishFunc func(exitCode int, tail string) error

	// LogStream is a lazy, line-buffered view of the combined stdout/stderr
	// of one engine subprocess. It is a pull-based, non-restartable sequence:
	// each Next advances to the next line as it becomes available, and the
	// sequence ends when the subprocess exits.
	//
	// Abandoning iteration does not by itself terminate the subprocess; the
	// context passed to the originating Build or Push call is the cancellation
	// handle. Callers should defer Close, which drains remaining output,
	// reaps the subprocess, and releases any scoped resources (temporary
	// context extraction or credential directories).
	LogStream struct {
		cmd      *exec.Cmd
		out      *os.File
		scanner  *bufio.Scanner
		finish   finishFunc
		cleanups []func()

		line string
		tail []byte
		err  error
		done bool
	}
)

// newLogStream wraps an already-started subprocess whose combined output
// arrives on out. Cleanups run exactly once, after the subprocess has been
// reaped.
func newLogStream(cmd *exec.Cmd, out *os.File, finish finishFunc, cleanups ...func()) *LogStream {
	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &LogStream{
		cmd:      cmd,
		out:      out,
		scanner:  scanner,
		finish:   finish,
		cleanups: cleanups,
	}
}

// Next advances to the next output line, blocking until one is available or
// the subprocess exits. It returns false at end of stream; check Err then.
func (s *LogStream) Next() bool {
	if s.done {
		return false
	}
	if s.scanner.Scan() {
		s.line = s.scanner.Text()
		s.retain(s.line)
		return true
	}
	s.end()
	return false
}

// Text returns the line read by the last successful Next.
func (s *LogStream) Text() string {
	return s.line
}

// Err returns the terminal error of the stream, if any: a BuildFailedError or
// PushFailedError for a non-zero exit, or an I/O error from the output pipe.
// It is only meaningful once Next has returned false or Close was called.
func (s *LogStream) Err() error {
	return s.err
}

// Lines returns the remaining lines as a single-use iterator.
func (s *LogStream) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for s.Next() {
			if !yield(s.line) {
				return
			}
		}
	}
}

// Close drains any unread output, waits for the subprocess, and releases the
// stream's scoped resources. It is safe to call multiple times and after the
// stream is exhausted. It returns the same error Err reports.
func (s *LogStream) Close() error {
	for s.Next() { //nolint:revive // draining intentionally discards lines
	}
	return s.err
}

// end reaps the subprocess and runs cleanups. Called exactly once, when the
// output pipe is exhausted (naturally or by draining).
func (s *LogStream) end() {
	s.done = true

	scanErr := s.scanner.Err()
	_ = s.out.Close()
	waitErr := s.cmd.Wait()

	for _, cleanup := range s.cleanups {
		cleanup()
	}
	s.cleanups = nil

	switch {
	case waitErr != nil:
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		s.err = s.finish(exitCode, string(s.tail))
	case scanErr != nil:
		s.err = scanErr
	}
}

// retain appends line to the bounded output tail.
func (s *LogStream) retain(line string) {
	s.tail = append(s.tail, line...)
	s.tail = append(s.tail, '\n')
	if len(s.tail) > maxOutputTail {
		s.tail = s.tail[len(s.tail)-maxOutputTail:]
	}
}
