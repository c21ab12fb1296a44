// Package launcher turns a manifest into an ordered list of launch
// strategies.
package launcher

import (
	"fmt"
	"log/slog"

	"github.com/morezero/launchkit/pkg/intent"
	"github.com/morezero/launchkit/pkg/launch"
	"github.com/morezero/launchkit/pkg/manifest"
)

const logPrefix = "launcher:strategies"

// Deps are the capabilities strategies are built from. A nil dependency
// drops the channels that need it.
type Deps struct {
	Caller launch.Caller
	Shell  launch.Shell
	Broker launch.Broker
}

// Strategies builds the strategies for m in its channel order. Channels
// that cannot serve the manifest's kind, or whose dependency is missing, are
// skipped.
func Strategies(m *manifest.Manifest, deps Deps) ([]launch.Strategy, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	command := launch.KindCommand(m.Kind, m.Component)
	if m.Kind == intent.KindShell {
		command = launch.StaticCommand(m.Command)
	}

	var extraFlags intent.Flags
	if m.Kind == intent.KindActivity {
		extraFlags = intent.FlagActivityNewTask
	}

	var out []launch.Strategy
	for _, ch := range m.ChannelOrder() {
		s := build(ch, m.Kind, command, extraFlags, deps)
		if s == nil {
			slog.Debug(fmt.Sprintf("%s - skipping %s for %s", logPrefix, ch, m.Kind))
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s - no usable channel for %s: %w", logPrefix, m.Kind, launch.ErrNoChannel)
	}
	return out, nil
}

func build(ch string, kind intent.Kind, command launch.CommandBuilder, extraFlags intent.Flags, deps Deps) launch.Strategy {
	structured := kind != intent.KindShell

	switch ch {
	case manifest.ChannelDirect:
		if !structured || deps.Caller == nil {
			return nil
		}
		d := launch.NewDirect(kind, deps.Caller)
		d.ExtraFlags = extraFlags
		return d
	case manifest.ChannelRoot:
		if deps.Shell == nil {
			return nil
		}
		return launch.NewRoot(deps.Shell, command)
	case manifest.ChannelProxy:
		if !structured || deps.Broker == nil {
			return nil
		}
		p := launch.NewProxy(kind, deps.Broker)
		p.ExtraFlags = extraFlags
		return p
	case manifest.ChannelProxyShell:
		if deps.Broker == nil {
			return nil
		}
		return launch.NewProxyShell(deps.Broker, command)
	}
	return nil
}
