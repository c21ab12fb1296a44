// Package amexec performs launch calls by invoking the activity manager
// binary directly, with the privileges of the current process.
package amexec

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/morezero/launchkit/pkg/intent"
	"github.com/morezero/launchkit/pkg/procexec"
)

const logPrefix = "amexec:executor"

const (
	defaultBinary  = "am"
	defaultTimeout = 10 * time.Second
)

// Config configures an Executor. Zero values use defaults.
type Config struct {
	Binary  string
	Timeout time.Duration
	// User is passed as --user when non-empty (e.g. "current").
	User string
}

// Executor issues start-activity, send-broadcast and start-service calls.
type Executor struct {
	binary  string
	timeout time.Duration
	user    string

	run func(ctx context.Context, argv []string, opts procexec.Options) (*procexec.Result, error)
}

// New creates an Executor.
func New(cfg Config) *Executor {
	if cfg.Binary == "" {
		cfg.Binary = defaultBinary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Executor{
		binary:  cfg.Binary,
		timeout: cfg.Timeout,
		user:    cfg.User,
		run:     procexec.Run,
	}
}

// StartActivity starts the activity the intent addresses.
func (e *Executor) StartActivity(ctx context.Context, in intent.Intent) error {
	return e.call(ctx, "start", in)
}

// BroadcastIntent sends the intent as a broadcast.
func (e *Executor) BroadcastIntent(ctx context.Context, in intent.Intent) error {
	return e.call(ctx, "broadcast", in)
}

// StartService starts the service the intent addresses.
func (e *Executor) StartService(ctx context.Context, in intent.Intent) error {
	return e.call(ctx, "startservice", in)
}

func (e *Executor) call(ctx context.Context, verb string, in intent.Intent) error {
	argv := e.Argv(verb, in)
	res, err := e.run(ctx, argv, procexec.Options{Timeout: e.timeout})
	if err != nil {
		return fmt.Errorf("%s - %s: %w", logPrefix, verb, err)
	}
	if err := res.Err(); err != nil {
		slog.Debug(fmt.Sprintf("%s - %s exited %d", logPrefix, verb, res.ExitCode))
		return err
	}
	// am reports some failures on stdout with a zero exit.
	for _, line := range res.Stdout {
		if len(line) >= 6 && line[:6] == "Error:" {
			return &procexec.ExitError{Code: res.ExitCode, Stderr: line}
		}
	}
	return nil
}

// Argv renders the intent as an argument vector for verb. Arguments are
// passed without a shell, so no quoting is applied.
func (e *Executor) Argv(verb string, in intent.Intent) []string {
	argv := []string{e.binary, verb}
	if e.user != "" {
		argv = append(argv, "--user", e.user)
	}
	if in.Action != "" {
		argv = append(argv, "-a", in.Action)
	}
	if in.Data != "" {
		argv = append(argv, "-d", in.Data)
	}
	for _, c := range in.Categories {
		argv = append(argv, "-c", c)
	}
	if in.Flags != 0 {
		argv = append(argv, "-f", "0x"+strconv.FormatUint(uint64(in.Flags), 16))
	}
	if in.Component != "" {
		argv = append(argv, "-n", in.Component)
	}
	return argv
}
