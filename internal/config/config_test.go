package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

var configEnvVars = []string{
	"BROKER_URL", "BROKER_SUBJECT",
	"CLIENT_NAME", "BROKER_VERSION_CONSTRAINT", "REQUEST_TIMEOUT", "PERMISSION_TIMEOUT",
	"ROOT_SHELL_BINARY", "ROOT_SHELL_SESSIONS", "AM_BINARY", "AM_USER",
	"BROKER_SERVICE_NAME", "BROKER_AUTO_GRANT", "BROKER_ALLOWED_CLIENTS", "BROKER_ADMIN_CLIENTS",
	"BROKER_DECISION_SUBJECT", "BROKER_MAX_PROCESS_TIMEOUT", "BROKER_REQUEST_TIMEOUT",
	"BROKER_HTTP_ADDR", "HTTP_PORT", "HEALTH_CHECK_TIMEOUT", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range configEnvVars {
		if v, ok := os.LookupEnv(env); ok {
			t.Cleanup(func() { os.Setenv(env, v) })
		}
		os.Unsetenv(env)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}

	if cfg.BrokerURL != "nats://127.0.0.1:4222" {
		t.Errorf("config:config_test - BrokerURL = %q, want %q", cfg.BrokerURL, "nats://127.0.0.1:4222")
	}
	if cfg.BrokerSubject != "launch.broker.v1" {
		t.Errorf("config:config_test - BrokerSubject = %q", cfg.BrokerSubject)
	}
	if cfg.ClientName != "launcher" {
		t.Errorf("config:config_test - ClientName = %q, want launcher", cfg.ClientName)
	}
	if cfg.BrokerVersionConstraint != ">=1.0.0, <2.0.0" {
		t.Errorf("config:config_test - BrokerVersionConstraint = %q", cfg.BrokerVersionConstraint)
	}
	if cfg.RequestTimeout != 5*time.Second || cfg.PermissionTimeout != 60*time.Second {
		t.Errorf("config:config_test - timeouts = %v/%v", cfg.RequestTimeout, cfg.PermissionTimeout)
	}
	if cfg.RootShellBinary != "su" || cfg.RootShellSessions != 1 || cfg.AMBinary != "am" {
		t.Errorf("config:config_test - shell settings = %q/%d/%q", cfg.RootShellBinary, cfg.RootShellSessions, cfg.AMBinary)
	}
	if cfg.ServiceName != "launch-broker" || cfg.AutoGrant || len(cfg.AllowedClients) != 0 {
		t.Errorf("config:config_test - broker policy defaults = %+v", cfg)
	}
	if cfg.MaxProcessTimeout != 30*time.Second || cfg.BrokerRequestTimeout != 25*time.Second {
		t.Errorf("config:config_test - broker timeouts = %v/%v", cfg.MaxProcessTimeout, cfg.BrokerRequestTimeout)
	}
	if cfg.HTTPPort != 8080 || cfg.HTTPListenAddr() != ":8080" {
		t.Errorf("config:config_test - HTTP = %d/%q", cfg.HTTPPort, cfg.HTTPListenAddr())
	}
	if cfg.HealthCheckTimeout != 5*time.Second {
		t.Errorf("config:config_test - HealthCheckTimeout = %v, want 5s", cfg.HealthCheckTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("config:config_test - LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)

	overrides := map[string]string{
		"BROKER_URL":                 "nats://custom:4222",
		"CLIENT_NAME":                "kiosk",
		"REQUEST_TIMEOUT":            "2s",
		"ROOT_SHELL_SESSIONS":        "3",
		"BROKER_AUTO_GRANT":          "true",
		"BROKER_ALLOWED_CLIENTS":     "kiosk,ops",
		"BROKER_MAX_PROCESS_TIMEOUT": "10s",
		"BROKER_HTTP_ADDR":           "127.0.0.1:9090",
		"LOG_LEVEL":                  "debug",
	}
	for k, v := range overrides {
		t.Setenv(k, v)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}

	if cfg.BrokerURL != "nats://custom:4222" || cfg.ClientName != "kiosk" {
		t.Errorf("config:config_test - url/name = %q/%q", cfg.BrokerURL, cfg.ClientName)
	}
	if cfg.RequestTimeout != 2*time.Second || cfg.RootShellSessions != 3 {
		t.Errorf("config:config_test - RequestTimeout=%v RootShellSessions=%d", cfg.RequestTimeout, cfg.RootShellSessions)
	}
	if !cfg.AutoGrant || len(cfg.AllowedClients) != 2 || cfg.AllowedClients[1] != "ops" {
		t.Errorf("config:config_test - AutoGrant=%v AllowedClients=%v", cfg.AutoGrant, cfg.AllowedClients)
	}
	if cfg.MaxProcessTimeout != 10*time.Second {
		t.Errorf("config:config_test - MaxProcessTimeout = %v", cfg.MaxProcessTimeout)
	}
	if cfg.HTTPListenAddr() != "127.0.0.1:9090" {
		t.Errorf("config:config_test - HTTPListenAddr() = %q", cfg.HTTPListenAddr())
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("config:config_test - LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("REQUEST_TIMEOUT", "soon")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("config:config_test - expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}
	if err := base.ValidateForServe(); err != nil {
		t.Errorf("config:config_test - defaults should be valid for serve: %v", err)
	}
	if err := base.ValidateForClient(); err != nil {
		t.Errorf("config:config_test - defaults should be valid for client: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		serve  bool
	}{
		{"empty broker url", func(c *Config) { c.BrokerURL = "" }, true},
		{"zero broker timeout", func(c *Config) { c.BrokerRequestTimeout = 0 }, true},
		{"zero max process timeout", func(c *Config) { c.MaxProcessTimeout = 0 }, true},
		{"zero health timeout", func(c *Config) { c.HealthCheckTimeout = 0 }, true},
		{"empty client name", func(c *Config) { c.ClientName = "" }, false},
		{"zero request timeout", func(c *Config) { c.RequestTimeout = 0 }, false},
		{"zero permission timeout", func(c *Config) { c.PermissionTimeout = 0 }, false},
		{"no root sessions", func(c *Config) { c.RootShellSessions = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			var err error
			if tt.serve {
				err = c.ValidateForServe()
			} else {
				err = c.ValidateForClient()
			}
			if err == nil {
				t.Errorf("config:config_test - expected validation error")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.want {
			t.Errorf("config:config_test - ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
