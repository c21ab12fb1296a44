// Package server orchestrates the broker: COMMS client, broker, dispatcher
// and HTTP health.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/launchkit/internal/config"
	"github.com/morezero/launchkit/pkg/amexec"
	"github.com/morezero/launchkit/pkg/broker"
	"github.com/morezero/launchkit/pkg/commsutil"
	"github.com/morezero/launchkit/pkg/dispatcher"
	"github.com/morezero/launchkit/pkg/events"
)

const logPrefix = "server:server"

// brokerForServer is the part of the broker the HTTP handlers use.
type brokerForServer interface {
	Health(ctx context.Context) *broker.HealthOutput
	Clients() []broker.ClientStatus
}

// Server is the launch-broker orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	httpServer *http.Server
	broker     brokerForServer
	ready      func() bool
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	config.SetupLogging(cfg.LogLevel, os.Stdout)

	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting launch-broker %s", logPrefix, broker.Version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Connect to NATS
	nc, err := commsutil.Connect(cfg.BrokerURL, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}
	s := &Server{cfg: cfg, nc: nc, ready: nc.IsConnected}

	// Step 2: Create broker
	publisher := events.NewCommsPublisher(nc, &events.CommsPublisherOpts{DecisionSubject: cfg.DecisionSubject})
	caller := amexec.New(amexec.Config{Binary: cfg.AMBinary, User: cfg.AMUser})
	b := broker.New(broker.NewBrokerParams{
		Caller:    caller,
		Publisher: publisher,
		Probe: func(context.Context) error {
			_, err := exec.LookPath(cfg.AMBinary)
			return err
		},
		Config: broker.Config{
			AutoGrant:         cfg.AutoGrant,
			AllowedClients:    cfg.AllowedClients,
			AdminClients:      cfg.AdminClients,
			MaxProcessTimeout: cfg.MaxProcessTimeout,
		},
	})
	s.broker = b

	// Step 3: Create dispatcher and subscribe
	sub, err := dispatcher.NewDispatcher(b).Subscribe(ctx, nc, cfg.BrokerSubject, cfg.BrokerRequestTimeout)
	if err != nil {
		nc.Close()
		return err
	}

	// Step 4: Start HTTP health server
	httpAddr := cfg.HTTPListenAddr()
	s.httpServer = &http.Server{Addr: httpAddr, Handler: s.routes()}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP health server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - launch-broker is ready on %s", logPrefix, cfg.BrokerSubject))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown
	_ = sub.Unsubscribe()
	_ = s.httpServer.Shutdown(ctx)
	_ = nc.Drain()

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// routes builds the HTTP mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth())
	mux.HandleFunc("/ready", s.handleReady())
	mux.HandleFunc("/clients", s.handleClients())
	return mux
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()
		h := s.broker.Health(ctx)
		w.Header().Set("Content-Type", "application/json")
		if h.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		writeJSON(w, h)
	}
}

func (s *Server) handleReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if s.ready != nil && !s.ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			writeJSON(w, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, map[string]string{"status": "ready"})
	}
}

// handleClients lists the permission table.
func (s *Server) handleClients() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, map[string]interface{}{"clients": s.broker.Clients()})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - response encode: %v", logPrefix, err))
	}
}
