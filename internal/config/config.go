// Package config provides broker and launcher configuration loaded from
// environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds launchkit configuration. The broker and the launcher read the
// same environment; each validates only the part it uses.
type Config struct {
	// COMMS: the broker listens and the launcher connects at BrokerURL.
	BrokerURL     string `envconfig:"BROKER_URL" default:"nats://127.0.0.1:4222"`
	BrokerSubject string `envconfig:"BROKER_SUBJECT" default:"launch.broker.v1"`

	// Launcher
	ClientName              string        `envconfig:"CLIENT_NAME" default:"launcher"`
	BrokerVersionConstraint string        `envconfig:"BROKER_VERSION_CONSTRAINT" default:">=1.0.0, <2.0.0"`
	RequestTimeout          time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s"`
	PermissionTimeout       time.Duration `envconfig:"PERMISSION_TIMEOUT" default:"60s"`
	RootShellBinary         string        `envconfig:"ROOT_SHELL_BINARY" default:"su"`
	RootShellSessions       int           `envconfig:"ROOT_SHELL_SESSIONS" default:"1"`

	// Activity manager, used by the direct channel and by the broker
	AMBinary string `envconfig:"AM_BINARY" default:"am"`
	AMUser   string `envconfig:"AM_USER"`

	// Broker
	ServiceName          string        `envconfig:"BROKER_SERVICE_NAME" default:"launch-broker"`
	AutoGrant            bool          `envconfig:"BROKER_AUTO_GRANT" default:"false"`
	AllowedClients       []string      `envconfig:"BROKER_ALLOWED_CLIENTS"`
	AdminClients         []string      `envconfig:"BROKER_ADMIN_CLIENTS"`
	DecisionSubject      string        `envconfig:"BROKER_DECISION_SUBJECT"`
	MaxProcessTimeout    time.Duration `envconfig:"BROKER_MAX_PROCESS_TIMEOUT" default:"30s"`
	BrokerRequestTimeout time.Duration `envconfig:"BROKER_REQUEST_TIMEOUT" default:"25s"`

	// HTTP health endpoint (BROKER_HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr           string        `envconfig:"BROKER_HTTP_ADDR"`
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the broker.
func (c *Config) ValidateForServe() error {
	if c.BrokerURL == "" {
		return fmt.Errorf("%s - BROKER_URL is required for serve", logPrefix)
	}
	if c.BrokerRequestTimeout <= 0 {
		return fmt.Errorf("%s - BROKER_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.MaxProcessTimeout <= 0 {
		return fmt.Errorf("%s - BROKER_MAX_PROCESS_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	return nil
}

// ValidateForClient checks required config when talking to the broker or
// launching locally.
func (c *Config) ValidateForClient() error {
	if c.ClientName == "" {
		return fmt.Errorf("%s - CLIENT_NAME is required", logPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.PermissionTimeout <= 0 {
		return fmt.Errorf("%s - PERMISSION_TIMEOUT must be positive", logPrefix)
	}
	if c.RootShellSessions < 1 {
		return fmt.Errorf("%s - ROOT_SHELL_SESSIONS must be at least 1", logPrefix)
	}
	return nil
}

// HTTPListenAddr returns the health endpoint address.
func (c *Config) HTTPListenAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// ParseLogLevel maps LOG_LEVEL values to slog levels. Unknown values mean info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogging installs a text handler writing to w as the default logger.
func SetupLogging(level string, w io.Writer) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLogLevel(level)})))
}
