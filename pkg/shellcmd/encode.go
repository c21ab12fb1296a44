// Package shellcmd renders launch arguments into an activity-manager shell
// command line.
//
// The grammar is:
//
//	<base-command> -a <action> [--<type-flag> "<key>" "<value>"]* [-c "<category>"]*
//
// Keys, values and categories are wrapped in double quotes and nothing more.
// They must not contain unescaped double quotes themselves.
package shellcmd

import (
	"fmt"
	"strings"

	"github.com/morezero/launchkit/pkg/intent"
)

const logPrefix = "shellcmd:encode"

// Encode renders the argument fragment appended after a base command. The
// fragment starts with a space. Extras keep list order and categories keep
// set order, so equal inputs always produce equal output.
func Encode(args intent.Args) (string, error) {
	var b strings.Builder

	b.WriteString(" -a ")
	b.WriteString(args.Intent.Action)

	for _, e := range args.Extras {
		flag, err := e.ShellFlag()
		if err != nil {
			return "", fmt.Errorf("%s - extra %q: %w", logPrefix, e.Key, err)
		}
		value, err := e.FormatValue()
		if err != nil {
			return "", fmt.Errorf("%s - %w", logPrefix, err)
		}
		fmt.Fprintf(&b, " --%s \"%s\" \"%s\"", flag, e.Key, value)
	}

	for _, c := range args.Intent.Categories {
		fmt.Fprintf(&b, " -c \"%s\"", c)
	}

	return b.String(), nil
}

// Build returns base followed by the encoded arguments.
func Build(base string, args intent.Args) (string, error) {
	frag, err := Encode(args)
	if err != nil {
		return "", err
	}
	return base + frag, nil
}

// BaseCommand returns the activity-manager invocation for a component kind.
// For KindShell the component is treated as the raw command.
func BaseCommand(kind intent.Kind, component string) (string, error) {
	var verb string
	switch kind {
	case intent.KindActivity:
		verb = "am start"
	case intent.KindBroadcast:
		verb = "am broadcast"
	case intent.KindService:
		verb = "am startservice"
	case intent.KindShell:
		if strings.TrimSpace(component) == "" {
			return "", fmt.Errorf("%s - shell kind requires a command", logPrefix)
		}
		return component, nil
	default:
		return "", fmt.Errorf("%s - unknown kind %q", logPrefix, kind)
	}
	if component == "" {
		return verb, nil
	}
	return verb + " -n " + component, nil
}
