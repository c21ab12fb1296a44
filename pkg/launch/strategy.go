// Package launch starts targets through one of several privilege channels.
//
// Every channel follows the same two-phase protocol: CanRun is a capability
// query with no launch side effects, and TryLaunch performs the launch and
// reports its outcome as an error value. Channels that can address a target
// in several ways drive their attempts through Iterative.
package launch

import (
	"context"
	"fmt"
	"time"

	"github.com/morezero/launchkit/pkg/intent"
	"github.com/morezero/launchkit/pkg/procexec"
)

// Strategy is one privilege channel.
type Strategy interface {
	// Name identifies the channel in logs and results.
	Name() string
	// CanRun reports whether the channel is usable right now.
	CanRun(ctx context.Context) bool
	// TryLaunch performs the launch. A nil error means the target was
	// launched; otherwise the error describes the single reported failure.
	TryLaunch(ctx context.Context, args intent.Args) error
}

// Caller issues structured launch calls for a single concrete intent.
type Caller interface {
	StartActivity(ctx context.Context, in intent.Intent) error
	BroadcastIntent(ctx context.Context, in intent.Intent) error
	StartService(ctx context.Context, in intent.Intent) error
}

// Gate is a capability check injected into a channel.
type Gate interface {
	Available(ctx context.Context) bool
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context) bool

// Available calls f.
func (f GateFunc) Available(ctx context.Context) bool { return f(ctx) }

// AlwaysGate is open unconditionally.
var AlwaysGate Gate = GateFunc(func(context.Context) bool { return true })

// PermissionBroker is the capability surface of the privileged broker used
// for gating.
type PermissionBroker interface {
	Ping(ctx context.Context) bool
	HasPermission(ctx context.Context) bool
	RequestPermission(ctx context.Context) (bool, error)
}

// ProcessSpawner runs a process on the broker's side.
type ProcessSpawner interface {
	NewProcess(ctx context.Context, argv []string, timeout time.Duration) (*procexec.Result, error)
}

// Broker is everything the privileged channels need from the broker.
type Broker interface {
	Caller
	PermissionBroker
	ProcessSpawner
}

// Shell runs a command line in an elevated shell.
type Shell interface {
	Available(ctx context.Context) bool
	Run(ctx context.Context, command string) (*procexec.Result, error)
}

// CommandBuilder returns the base command a shell channel appends encoded
// arguments to.
type CommandBuilder func(args intent.Args) (string, error)

// StaticCommand returns a CommandBuilder that always yields base.
func StaticCommand(base string) CommandBuilder {
	return func(intent.Args) (string, error) { return base, nil }
}

// call dispatches to the Caller method matching kind.
func call(ctx context.Context, c Caller, kind intent.Kind, in intent.Intent) error {
	switch kind {
	case intent.KindActivity:
		return c.StartActivity(ctx, in)
	case intent.KindBroadcast:
		return c.BroadcastIntent(ctx, in)
	case intent.KindService:
		return c.StartService(ctx, in)
	default:
		return &ContractError{Op: "call", Err: fmt.Errorf("kind %q has no structured call: %w", kind, ErrUnsupported)}
	}
}
