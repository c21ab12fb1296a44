// Package manifest loads launch requests from YAML or JSON files.
package manifest

import (
	"fmt"

	"github.com/morezero/launchkit/pkg/intent"
)

// Channel names accepted in Manifest.Channels.
const (
	ChannelDirect     = "direct"
	ChannelRoot       = "root"
	ChannelProxy      = "proxy"
	ChannelProxyShell = "proxy-shell"
)

// DefaultChannels is the preference order used when a manifest names none:
// most privileged first, direct last.
var DefaultChannels = []string{ChannelProxy, ChannelRoot, ChannelProxyShell, ChannelDirect}

// Manifest describes one launch request.
type Manifest struct {
	Kind      intent.Kind `yaml:"kind" json:"kind"`
	Component string      `yaml:"component,omitempty" json:"component,omitempty"`
	// Command is the raw command line for the shell kind.
	Command  string          `yaml:"command,omitempty" json:"command,omitempty"`
	Channels []string        `yaml:"channels,omitempty" json:"channels,omitempty"`
	Intent   intent.Intent   `yaml:"intent" json:"intent"`
	Filters  []intent.Filter `yaml:"filters,omitempty" json:"filters,omitempty"`
	Extras   []intent.Extra  `yaml:"extras,omitempty" json:"extras,omitempty"`
}

// Validate checks the manifest is complete enough to launch.
func (m *Manifest) Validate() error {
	if !m.Kind.Valid() {
		return fmt.Errorf("%s - unknown kind %q", logPrefix, m.Kind)
	}
	if m.Kind == intent.KindShell && m.Command == "" {
		return fmt.Errorf("%s - shell kind requires command", logPrefix)
	}
	for _, ch := range m.Channels {
		switch ch {
		case ChannelDirect, ChannelRoot, ChannelProxy, ChannelProxyShell:
		default:
			return fmt.Errorf("%s - unknown channel %q", logPrefix, ch)
		}
	}
	for _, e := range m.Extras {
		if e.Key == "" {
			return fmt.Errorf("%s - extra with empty key", logPrefix)
		}
		if _, err := e.ShellFlag(); err != nil {
			return fmt.Errorf("%s - extra %q: %w", logPrefix, e.Key, err)
		}
	}
	return nil
}

// ChannelOrder returns the channels to try, in order.
func (m *Manifest) ChannelOrder() []string {
	if len(m.Channels) == 0 {
		return append([]string(nil), DefaultChannels...)
	}
	return append([]string(nil), m.Channels...)
}

// Args converts the manifest to launch arguments. The component is copied
// onto the intent when the intent does not name one.
func (m *Manifest) Args() intent.Args {
	in := m.Intent.Clone()
	if in.Component == "" && m.Kind != intent.KindShell {
		in.Component = m.Component
	}
	if in.Action == "" {
		in.Action = intent.ActionMain
	}
	return intent.Args{
		Intent:  in,
		Filters: append([]intent.Filter(nil), m.Filters...),
		Extras:  append([]intent.Extra(nil), m.Extras...),
	}
}

// Merge overlays the non-empty fields of override onto base.
func Merge(base, override *Manifest) *Manifest {
	merged := *base
	merged.Intent = base.Intent.Clone()

	if override.Kind != "" {
		merged.Kind = override.Kind
	}
	if override.Component != "" {
		merged.Component = override.Component
	}
	if override.Command != "" {
		merged.Command = override.Command
	}
	if len(override.Channels) > 0 {
		merged.Channels = override.Channels
	}
	if override.Intent.Action != "" {
		merged.Intent.Action = override.Intent.Action
	}
	if override.Intent.Data != "" {
		merged.Intent.Data = override.Intent.Data
	}
	for _, c := range override.Intent.Categories {
		merged.Intent.AddCategory(c)
	}
	merged.Intent.AddFlags(override.Intent.Flags)
	if len(override.Filters) > 0 {
		merged.Filters = override.Filters
	}
	merged.Extras = append(append([]intent.Extra(nil), base.Extras...), override.Extras...)

	return &merged
}
