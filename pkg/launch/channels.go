package launch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/morezero/launchkit/pkg/intent"
	"github.com/morezero/launchkit/pkg/shellcmd"
)

const channelsLogPrefix = "launch:channels"

// ProxyShellTimeout is how long the proxy shell channel waits for its
// subprocess.
const ProxyShellTimeout = 1000 * time.Millisecond

// Direct launches without elevated privileges, one local call per filter.
type Direct struct {
	Kind       intent.Kind
	Caller     Caller
	ExtraFlags intent.Flags
}

// NewDirect creates a Direct channel for kind.
func NewDirect(kind intent.Kind, caller Caller) *Direct {
	return &Direct{Kind: kind, Caller: caller}
}

// Name implements Strategy.
func (d *Direct) Name() string { return "direct-" + string(d.Kind) }

// CanRun implements Strategy. The direct channel is always usable.
func (d *Direct) CanRun(context.Context) bool { return true }

// TryLaunch implements Strategy. Without filters the base intent is
// attempted once.
func (d *Direct) TryLaunch(ctx context.Context, args intent.Args) error {
	return runStructured(ctx, args, Iterative{
		ExtraFlags: d.ExtraFlags,
		Attempt: func(ctx context.Context, _ intent.Args, in intent.Intent) error {
			return call(ctx, d.Caller, d.Kind, in)
		},
	})
}

// Root runs one encoded command through the pooled root shell. It makes a
// single attempt and does not walk the filter list.
type Root struct {
	Shell   Shell
	Command CommandBuilder
}

// NewRoot creates a Root channel.
func NewRoot(shell Shell, command CommandBuilder) *Root {
	return &Root{Shell: shell, Command: command}
}

// Name implements Strategy.
func (r *Root) Name() string { return "root" }

// CanRun implements Strategy.
func (r *Root) CanRun(ctx context.Context) bool { return r.Shell.Available(ctx) }

// TryLaunch implements Strategy.
func (r *Root) TryLaunch(ctx context.Context, args intent.Args) error {
	command, err := buildCommand(r.Command, args)
	if err != nil {
		return err
	}

	res, err := r.Shell.Run(ctx, command)
	if err != nil {
		return err
	}
	return res.Err()
}

// Proxy issues one structured broker call per filter. Activity, broadcast
// and service variants differ only in Kind.
type Proxy struct {
	Kind       intent.Kind
	Broker     Broker
	Gate       Gate
	ExtraFlags intent.Flags
}

// NewProxy creates a Proxy channel gated on broker reachability and
// permission.
func NewProxy(kind intent.Kind, broker Broker) *Proxy {
	return &Proxy{Kind: kind, Broker: broker, Gate: NewProxyGate(broker)}
}

// Name implements Strategy.
func (p *Proxy) Name() string { return "proxy-" + string(p.Kind) }

// CanRun implements Strategy.
func (p *Proxy) CanRun(ctx context.Context) bool { return p.Gate.Available(ctx) }

// TryLaunch implements Strategy. Without filters the base intent is
// attempted once.
func (p *Proxy) TryLaunch(ctx context.Context, args intent.Args) error {
	return runStructured(ctx, args, Iterative{
		ExtraFlags: p.ExtraFlags,
		Attempt: func(ctx context.Context, _ intent.Args, in intent.Intent) error {
			return p.Call(ctx, in)
		},
	})
}

// runStructured walks the filters with it, or makes a single attempt with
// the base intent when there are none.
func runStructured(ctx context.Context, args intent.Args, it Iterative) error {
	if len(args.Filters) > 0 {
		return it.Run(ctx, args)
	}
	in := args.Intent.Clone()
	in.AddFlags(it.ExtraFlags)
	return it.attempt(ctx, args, in)
}

// Call issues the broker call for a single intent.
func (p *Proxy) Call(ctx context.Context, in intent.Intent) error {
	return call(ctx, p.Broker, p.Kind, in)
}

// ProxyShell spawns one encoded command through the broker's process
// capability and waits up to ProxyShellTimeout for it.
type ProxyShell struct {
	Spawner ProcessSpawner
	Gate    Gate
	Command CommandBuilder
}

// NewProxyShell creates a ProxyShell channel.
func NewProxyShell(broker Broker, command CommandBuilder) *ProxyShell {
	return &ProxyShell{Spawner: broker, Gate: NewProxyGate(broker), Command: command}
}

// Name implements Strategy.
func (s *ProxyShell) Name() string { return "proxy-shell" }

// CanRun implements Strategy.
func (s *ProxyShell) CanRun(ctx context.Context) bool { return s.Gate.Available(ctx) }

// TryLaunch implements Strategy.
func (s *ProxyShell) TryLaunch(ctx context.Context, args intent.Args) error {
	command, err := buildCommand(s.Command, args)
	if err != nil {
		return err
	}

	res, err := s.Spawner.NewProcess(ctx, []string{"sh", "-c", command}, ProxyShellTimeout)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failure to launch through broker process: %v", channelsLogPrefix, err))
		return err
	}

	slog.Info(fmt.Sprintf("%s - broker command output\n%s", channelsLogPrefix, strings.Join(res.Stdout, "\n")))
	slog.Info(fmt.Sprintf("%s - broker error output\n%s", channelsLogPrefix, strings.Join(res.Stderr, "\n")))

	return res.Err()
}

// Call is not available on the shell channel; it only runs commands.
func (s *ProxyShell) Call(context.Context, intent.Intent) error {
	return &ContractError{Op: "proxy-shell call", Err: ErrUnsupported}
}

// buildCommand resolves the base command and appends the encoded arguments.
func buildCommand(builder CommandBuilder, args intent.Args) (string, error) {
	base, err := builder(args)
	if err != nil {
		return "", &ContractError{Op: "build command", Err: err}
	}
	command, err := shellcmd.Build(base, args)
	if err != nil {
		return "", encodingContract("encode command", err)
	}
	return command, nil
}

// KindCommand returns a CommandBuilder producing the activity-manager base
// command for kind and component.
func KindCommand(kind intent.Kind, component string) CommandBuilder {
	return func(intent.Args) (string, error) {
		return shellcmd.BaseCommand(kind, component)
	}
}

// ProxyGate opens when the broker answers and this client holds, or is
// granted on request, the broker permission.
type ProxyGate struct {
	Broker PermissionBroker
}

// NewProxyGate creates a ProxyGate.
func NewProxyGate(b PermissionBroker) *ProxyGate {
	return &ProxyGate{Broker: b}
}

// Available implements Gate. It may block while a permission request is
// decided.
func (g *ProxyGate) Available(ctx context.Context) bool {
	if !g.Broker.Ping(ctx) {
		return false
	}
	if g.Broker.HasPermission(ctx) {
		return true
	}
	granted, err := g.Broker.RequestPermission(ctx)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - permission request failed: %v", channelsLogPrefix, err))
		return false
	}
	return granted
}

var (
	_ Strategy = (*Direct)(nil)
	_ Strategy = (*Root)(nil)
	_ Strategy = (*Proxy)(nil)
	_ Strategy = (*ProxyShell)(nil)
	_ Gate     = (*ProxyGate)(nil)
)
