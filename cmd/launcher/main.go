// launcher starts a component through the most privileged channel that is
// available: the broker proxy, a root shell, the broker's shell, or a direct
// unprivileged call.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/morezero/launchkit/internal/config"
	"github.com/morezero/launchkit/internal/launcher"
	"github.com/morezero/launchkit/pkg/amexec"
	"github.com/morezero/launchkit/pkg/intent"
	"github.com/morezero/launchkit/pkg/launch"
	"github.com/morezero/launchkit/pkg/manifest"
	"github.com/morezero/launchkit/pkg/proxy"
	"github.com/morezero/launchkit/pkg/rootshell"
	"github.com/morezero/launchkit/pkg/shellcmd"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "launcher: %v\n", err)
		os.Exit(1)
	}
}

// options holds the parsed command line.
type options struct {
	file       string
	channels   []string
	kind       string
	component  string
	command    string
	action     string
	data       string
	categories []string
	extras     []string
	print      bool
	help       bool
}

func newFlagSet(o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("launcher", pflag.ContinueOnError)
	fs.StringVarP(&o.file, "file", "f", "", "launch manifest (YAML or JSON); falls back to LAUNCH_MANIFEST, launch.yaml, launch.json")
	fs.StringSliceVar(&o.channels, "channel", nil, "channels to try in order: proxy, root, proxy-shell, direct")
	fs.StringVarP(&o.kind, "kind", "k", "", "activity, broadcast, service or shell")
	fs.StringVarP(&o.component, "component", "n", "", "component name, e.g. com.example/.Main")
	fs.StringVar(&o.command, "command", "", "raw command for the shell kind")
	fs.StringVarP(&o.action, "action", "a", "", "intent action")
	fs.StringVarP(&o.data, "data", "d", "", "intent data URI")
	fs.StringArrayVarP(&o.categories, "category", "c", nil, "intent category (repeatable)")
	fs.StringArrayVarP(&o.extras, "extra", "e", nil, "extra as key:type=value (repeatable), e.g. count:int=3")
	fs.BoolVar(&o.print, "print", false, "print the encoded shell command and exit")
	fs.BoolVarP(&o.help, "help", "h", false, "show help")
	return fs
}

func parseArgs(argv []string) (*options, *pflag.FlagSet, error) {
	o := &options{}
	fs := newFlagSet(o)
	if err := fs.Parse(argv); err != nil {
		return nil, fs, err
	}
	if fs.NArg() > 0 {
		return nil, fs, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return o, fs, nil
}

// overrides returns the manifest described by the flags alone.
func (o *options) overrides() (*manifest.Manifest, error) {
	m := &manifest.Manifest{
		Kind:      intent.Kind(o.kind),
		Component: o.component,
		Command:   o.command,
		Channels:  o.channels,
		Intent: intent.Intent{
			Action:     o.action,
			Data:       o.data,
			Categories: o.categories,
		},
	}
	for _, raw := range o.extras {
		e, err := parseExtra(raw)
		if err != nil {
			return nil, err
		}
		m.Extras = append(m.Extras, e)
	}
	return m, nil
}

// parseExtra parses key:type=value. The type defaults to string.
func parseExtra(raw string) (intent.Extra, error) {
	head, value, ok := strings.Cut(raw, "=")
	if !ok {
		return intent.Extra{}, fmt.Errorf("extra %q: want key:type=value", raw)
	}
	key, typ, hasType := strings.Cut(head, ":")
	if key == "" {
		return intent.Extra{}, fmt.Errorf("extra %q: empty key", raw)
	}
	if !hasType {
		typ = string(intent.ExtraString)
	}
	e := intent.Extra{Key: key, Type: intent.ExtraType(typ), Value: value}
	if _, err := e.ShellFlag(); err != nil {
		return intent.Extra{}, fmt.Errorf("extra %q: %w", raw, err)
	}
	return e, nil
}

// resolveManifest loads the manifest file, if any, and applies the flags on
// top of it.
func resolveManifest(o *options) (*manifest.Manifest, error) {
	flags, err := o.overrides()
	if err != nil {
		return nil, err
	}

	var base *manifest.Manifest
	if o.file != "" {
		data, err := os.ReadFile(o.file)
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		if base, err = manifest.Decode(data); err != nil {
			return nil, fmt.Errorf("%s: %w", o.file, err)
		}
	} else {
		base, err = manifest.LoadPartial()
		if errors.Is(err, manifest.ErrNotFound) {
			base, err = &manifest.Manifest{}, nil
		}
		if err != nil {
			return nil, err
		}
	}

	m := manifest.Merge(base, flags)
	if m.Kind == "" {
		m.Kind = intent.KindActivity
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func run(argv []string) error {
	o, fs, err := parseArgs(argv)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(fs)
			return nil
		}
		return err
	}
	if o.help {
		printHelp(fs)
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	config.SetupLogging(cfg.LogLevel, os.Stderr)
	if err := cfg.ValidateForClient(); err != nil {
		return err
	}

	m, err := resolveManifest(o)
	if err != nil {
		return err
	}
	args := m.Args()

	if o.print {
		base, err := shellcmd.BaseCommand(m.Kind, commandTarget(m))
		if err != nil {
			return err
		}
		line, err := shellcmd.Build(base, args)
		if err != nil {
			return err
		}
		fmt.Println(line)
		return nil
	}

	client := proxy.New(proxy.Config{
		URL:               cfg.BrokerURL,
		ClientID:          cfg.ClientName,
		Subject:           cfg.BrokerSubject,
		VersionConstraint: cfg.BrokerVersionConstraint,
		RequestTimeout:    cfg.RequestTimeout,
		PermissionTimeout: cfg.PermissionTimeout,
	})
	defer client.Close()

	strategies, err := launcher.Strategies(m, launcher.Deps{
		Caller: amexec.New(amexec.Config{Binary: cfg.AMBinary, User: cfg.AMUser}),
		Shell:  rootshell.NewPool(rootshell.PoolConfig{Binary: cfg.RootShellBinary, Sessions: cfg.RootShellSessions}),
		Broker: client,
	})
	if err != nil {
		return err
	}

	res := launch.Launch(context.Background(), args, strategies...)
	if !res.OK() {
		return fmt.Errorf("%s: %w", channelLabel(res.Channel), res.Err)
	}
	fmt.Printf("launched via %s in %s\n", res.Channel, res.Duration)
	return nil
}

func commandTarget(m *manifest.Manifest) string {
	if m.Kind == intent.KindShell {
		return m.Command
	}
	return m.Component
}

func channelLabel(ch string) string {
	if ch == "" {
		return "no channel"
	}
	return ch
}

func printHelp(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: launcher [flags]\n\nLaunch a component through the first available privilege channel.\n\nFlags:\n%s", fs.FlagUsages())
	fmt.Fprintf(os.Stderr, "\nEnvironment: BROKER_URL, CLIENT_NAME, ROOT_SHELL_BINARY, AM_BINARY, LAUNCH_MANIFEST, LOG_LEVEL.\n")
}
