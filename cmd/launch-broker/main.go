// Package main is the entrypoint for the launch broker.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/morezero/launchkit/internal/config"
	"github.com/morezero/launchkit/internal/server"
	"github.com/morezero/launchkit/pkg/proxy"
)

const usage = `Usage: launch-broker [command]
       launch-broker serve             Start the broker (NATS, HTTP health, broker API).
       launch-broker grant <client>    Grant a client's permission request.
       launch-broker deny <client>     Deny a client's permission request.
       launch-broker ping              Print the running broker's version and uid.

Commands:
  serve           (default) Start the privileged launch broker.
  grant <client>  Decide a pending request in the client's favour.
  deny <client>   Refuse a client; it stays denied until granted.
  ping            Check that a broker answers on BROKER_SUBJECT.

Environment: BROKER_URL, BROKER_SUBJECT, BROKER_AUTO_GRANT, BROKER_ALLOWED_CLIENTS,
BROKER_ADMIN_CLIENTS, BROKER_MAX_PROCESS_TIMEOUT, BROKER_HTTP_ADDR, CLIENT_NAME (identity used by grant/deny).

grant and deny succeed only when CLIENT_NAME is listed in the broker's
BROKER_ADMIN_CLIENTS and differs from the client being decided.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "grant", "deny":
		if len(args) < 2 || args[1] == "" {
			log.Fatalf("launch-broker %s: require client name", cmd)
		}
		if err := runDecide(args[1], cmd == "grant"); err != nil {
			log.Fatalf("launch-broker %s: %v", cmd, err)
		}
		return
	case "ping":
		if err := runPing(); err != nil {
			log.Fatalf("launch-broker ping: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
		break
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("launch-broker: %v", err)
	}
}

func adminClient() (*proxy.Client, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.SetupLogging(cfg.LogLevel, os.Stderr)
	if err := cfg.ValidateForClient(); err != nil {
		return nil, err
	}
	return proxy.New(proxy.Config{
		URL:            cfg.BrokerURL,
		ClientID:       cfg.ClientName,
		Subject:        cfg.BrokerSubject,
		RequestTimeout: cfg.RequestTimeout,
	}), nil
}

func runDecide(clientID string, granted bool) error {
	c, err := adminClient()
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.DecidePermission(context.Background(), clientID, granted)
	if err != nil {
		return err
	}
	fmt.Printf("%s: granted=%t\n", clientID, res.Granted)
	return nil
}

func runPing() error {
	c, err := adminClient()
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.Version(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("launch-broker %s (uid %d)\n", res.Version, res.UID)
	return nil
}
