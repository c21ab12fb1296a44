package broker

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/morezero/launchkit/pkg/events"
	"github.com/morezero/launchkit/pkg/launch"
	"github.com/morezero/launchkit/pkg/procexec"
)

const logPrefix = "broker:broker"

const defaultMaxProcessTimeout = 30 * time.Second

// Config holds broker policy.
type Config struct {
	// AutoGrant grants every permission request without operator action.
	AutoGrant bool
	// AllowedClients are granted on request.
	AllowedClients []string
	// AdminClients may decide permissions of other clients. Empty means
	// nobody may.
	AdminClients []string
	// MaxProcessTimeout caps the timeout of spawned processes.
	MaxProcessTimeout time.Duration
}

// DefaultConfig returns the default broker configuration.
func DefaultConfig() Config {
	return Config{MaxProcessTimeout: defaultMaxProcessTimeout}
}

// RunFunc runs a process. procexec.Run satisfies it.
type RunFunc func(ctx context.Context, argv []string, opts procexec.Options) (*procexec.Result, error)

// Broker holds the permission table and performs privileged operations for
// granted clients.
type Broker struct {
	mu          sync.RWMutex
	permissions map[string]PermissionState

	allowed   map[string]bool
	admins    map[string]bool
	config    Config
	caller    launch.Caller
	run       RunFunc
	probe     func(ctx context.Context) error
	publisher events.EventPublisher
	uid       int
}

// NewBrokerParams holds parameters for New.
type NewBrokerParams struct {
	Caller    launch.Caller
	Run       RunFunc
	Publisher events.EventPublisher
	// Probe reports whether the caller is usable; nil means always.
	Probe  func(ctx context.Context) error
	Config Config
}

// New creates a new Broker instance.
func New(params NewBrokerParams) *Broker {
	cfg := params.Config
	if cfg.MaxProcessTimeout <= 0 {
		cfg.MaxProcessTimeout = defaultMaxProcessTimeout
	}

	pub := params.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}

	run := params.Run
	if run == nil {
		run = procexec.Run
	}

	allowed := toSet(cfg.AllowedClients)
	admins := toSet(cfg.AdminClients)

	return &Broker{
		permissions: make(map[string]PermissionState),
		allowed:     allowed,
		admins:      admins,
		config:      cfg,
		caller:      params.Caller,
		run:         run,
		probe:       params.Probe,
		publisher:   pub,
		uid:         os.Geteuid(),
	}
}

// Ping reports the broker version and the uid it runs as.
func (b *Broker) Ping(context.Context) (version string, uid int) {
	return Version, b.uid
}

// Config returns the broker configuration.
func (b *Broker) Config() Config {
	return b.config
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
	return set
}
