// Package procexec runs a subprocess to completion and captures its output.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const logPrefix = "procexec:run"

// waitDelay bounds how long Wait blocks on inherited pipes after the
// process has been killed.
const waitDelay = 500 * time.Millisecond

// Options configures a single run.
type Options struct {
	// Timeout kills the process when it elapses. Zero means no limit
	// beyond the caller's context.
	Timeout time.Duration
	// Stdin is fed to the process when non-nil.
	Stdin io.Reader
	// Env replaces the environment when non-nil.
	Env []string
}

// Result is the outcome of a process that was started.
type Result struct {
	ExitCode int      `json:"exitCode"`
	Stdout   []string `json:"stdout,omitempty"`
	Stderr   []string `json:"stderr,omitempty"`
	TimedOut bool     `json:"timedOut,omitempty"`
}

// Err maps the result to the launch contract: exit code 0 is success, any
// other code is an *ExitError carrying stderr.
func (r *Result) Err() error {
	if r.TimedOut {
		return &ExitError{Code: r.ExitCode, Stderr: strings.Join(r.Stderr, "\n"), TimedOut: true}
	}
	if r.ExitCode == 0 {
		return nil
	}
	return &ExitError{Code: r.ExitCode, Stderr: strings.Join(r.Stderr, "\n")}
}

// ExitError is a non-zero exit. Its message is exactly the captured stderr.
type ExitError struct {
	Code     int
	Stderr   string
	TimedOut bool
}

func (e *ExitError) Error() string {
	if e.TimedOut && e.Stderr == "" {
		return "process did not exit before the timeout"
	}
	if e.Stderr == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Stderr
}

// Run starts argv[0] with the remaining arguments and waits for it. A
// non-zero exit is reported through Result, not as an error; the returned
// error is reserved for processes that could not be run at all.
func Run(ctx context.Context, argv []string, opts Options) (*Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%s - empty command", logPrefix)
	}

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.WaitDelay = waitDelay
	if opts.Stdin != nil {
		cmd.Stdin = opts.Stdin
	}
	if opts.Env != nil {
		cmd.Env = opts.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug(fmt.Sprintf("%s - exec %s", logPrefix, strings.Join(argv, " ")))
	err := cmd.Run()

	result := &Result{
		Stdout: SplitLines(stdout.String()),
		Stderr: SplitLines(stderr.String()),
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case runCtx.Err() != nil && ctx.Err() == nil:
			result.TimedOut = true
			result.ExitCode = -1
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		default:
			return nil, fmt.Errorf("%s - failed to execute %s: %w", logPrefix, argv[0], err)
		}
	}

	return result, nil
}

// SplitLines splits output into lines, dropping the trailing newline.
func SplitLines(s string) []string {
	s = strings.TrimRight(s, "\r\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
