package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/morezero/launchkit/internal/config"
	"github.com/morezero/launchkit/pkg/broker"
)

const serverTestPrefix = "server:server_test"

// mockBroker implements brokerForServer for handler tests.
type mockBroker struct {
	health  *broker.HealthOutput
	clients []broker.ClientStatus
}

func (m *mockBroker) Health(context.Context) *broker.HealthOutput {
	if m.health != nil {
		return m.health
	}
	return &broker.HealthOutput{Status: "unhealthy", Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

func (m *mockBroker) Clients() []broker.ClientStatus { return m.clients }

// testServer returns a Server with a mock broker and test config for HTTP handler tests.
func testServer(t *testing.T, b brokerForServer, ready func() bool) *Server {
	t.Helper()
	cfg := &config.Config{
		HealthCheckTimeout: 5 * time.Second,
	}
	return &Server{cfg: cfg, broker: b, ready: ready}
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	return rec
}

func TestHealthHandler_Healthy(t *testing.T) {
	b := &mockBroker{
		health: &broker.HealthOutput{Status: "healthy", Checks: broker.HealthChecks{Caller: true, GrantedClients: 2}, Timestamp: time.Now().UTC().Format(time.RFC3339)},
	}
	rec := serve(testServer(t, b, nil), http.MethodGet, "/health")

	if rec.Code != http.StatusOK {
		t.Errorf("%s - health (healthy) got status %d, want 200", serverTestPrefix, rec.Code)
	}
	var out broker.HealthOutput
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("%s - decode health: %v", serverTestPrefix, err)
	}
	if out.Status != "healthy" || out.Checks.GrantedClients != 2 {
		t.Errorf("%s - health = %+v", serverTestPrefix, out)
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	rec := serve(testServer(t, &mockBroker{}, nil), http.MethodGet, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("%s - health (unhealthy) got status %d, want 503", serverTestPrefix, rec.Code)
	}
}

func TestHealthHandler_RealBroker(t *testing.T) {
	b := broker.New(broker.NewBrokerParams{})
	rec := serve(testServer(t, b, nil), http.MethodGet, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("%s - broker without caller got status %d, want 503", serverTestPrefix, rec.Code)
	}
}

func TestReadyHandler(t *testing.T) {
	tests := []struct {
		name   string
		ready  func() bool
		want   int
		status string
	}{
		{"no probe", nil, http.StatusOK, "ready"},
		{"connected", func() bool { return true }, http.StatusOK, "ready"},
		{"disconnected", func() bool { return false }, http.StatusServiceUnavailable, "not ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(testServer(t, &mockBroker{}, tt.ready), http.MethodGet, "/ready")
			if rec.Code != tt.want {
				t.Errorf("%s - ready got status %d, want %d", serverTestPrefix, rec.Code, tt.want)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("%s - decode ready: %v", serverTestPrefix, err)
			}
			if body["status"] != tt.status {
				t.Errorf("%s - status = %q, want %q", serverTestPrefix, body["status"], tt.status)
			}
		})
	}
}

func TestClientsHandler(t *testing.T) {
	b := &mockBroker{clients: []broker.ClientStatus{
		{ClientID: "kiosk", State: broker.PermissionGranted},
		{ClientID: "launcher", State: broker.PermissionPending},
	}}
	rec := serve(testServer(t, b, nil), http.MethodGet, "/clients")
	if rec.Code != http.StatusOK {
		t.Fatalf("%s - clients got status %d, want 200", serverTestPrefix, rec.Code)
	}

	var body struct {
		Clients []broker.ClientStatus `json:"clients"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("%s - decode clients: %v", serverTestPrefix, err)
	}
	if len(body.Clients) != 2 || body.Clients[1].State != broker.PermissionPending {
		t.Errorf("%s - clients = %+v", serverTestPrefix, body.Clients)
	}
}

func TestClientsHandler_MethodNotAllowed(t *testing.T) {
	rec := serve(testServer(t, &mockBroker{}, nil), http.MethodPost, "/clients")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("%s - POST /clients got status %d, want 405", serverTestPrefix, rec.Code)
	}
}
