// Package rootshell runs commands through a pooled superuser shell.
package rootshell

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/morezero/launchkit/pkg/procexec"
)

const logPrefix = "rootshell:pool"

const (
	defaultBinary   = "su"
	defaultSessions = 1
	probeTimeout    = 5 * time.Second
)

// PoolConfig configures a Pool. Zero values use defaults.
type PoolConfig struct {
	// Binary is the elevation binary, invoked as "<Binary> -c <command>".
	Binary string
	// Sessions bounds how many commands may run at once.
	Sessions int
	// Timeout bounds each command. Zero means only the caller's context.
	Timeout time.Duration
}

// Pool serializes access to the root shell. It is safe for concurrent use.
type Pool struct {
	binary  string
	timeout time.Duration
	sem     *semaphore.Weighted

	lookPath func(string) (string, error)
}

// NewPool creates a Pool.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Binary == "" {
		cfg.Binary = defaultBinary
	}
	if cfg.Sessions <= 0 {
		cfg.Sessions = defaultSessions
	}
	return &Pool{
		binary:   cfg.Binary,
		timeout:  cfg.Timeout,
		sem:      semaphore.NewWeighted(int64(cfg.Sessions)),
		lookPath: exec.LookPath,
	}
}

// Binary returns the configured elevation binary.
func (p *Pool) Binary() string {
	return p.binary
}

// Available reports whether the elevation binary exists and actually yields
// uid 0.
func (p *Pool) Available(ctx context.Context) bool {
	if _, err := p.lookPath(p.binary); err != nil {
		slog.Debug(fmt.Sprintf("%s - %s not found: %v", logPrefix, p.binary, err))
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	res, err := p.Run(probeCtx, "id -u")
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - probe failed: %v", logPrefix, err))
		return false
	}
	if res.ExitCode != 0 || len(res.Stdout) == 0 {
		return false
	}
	return strings.TrimSpace(res.Stdout[0]) == "0"
}

// Run executes command in the root shell. It blocks until a session is free.
func (p *Pool) Run(ctx context.Context, command string) (*procexec.Result, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%s - waiting for shell session: %w", logPrefix, err)
	}
	defer p.sem.Release(1)

	slog.Debug(fmt.Sprintf("%s - run %q", logPrefix, command))
	res, err := procexec.Run(ctx, []string{p.binary, "-c", command}, procexec.Options{Timeout: p.timeout})
	if err != nil {
		return nil, fmt.Errorf("%s - %w", logPrefix, err)
	}
	return res, nil
}
