// Package proxy is the client side of the privileged launch broker. Client
// satisfies launch.Broker, so the proxy channels drive it directly.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/launchkit/pkg/brokerapi"
	"github.com/morezero/launchkit/pkg/commsutil"
	"github.com/morezero/launchkit/pkg/launch"
)

const logPrefix = "proxy:client"

const (
	defaultRequestTimeout    = 5 * time.Second
	defaultPermissionTimeout = 60 * time.Second
	// DefaultVersionConstraint accepts any 1.x broker.
	DefaultVersionConstraint = ">=1.0.0, <2.0.0"
)

// ErrPermissionTimeout is returned when no decision arrives in time.
var ErrPermissionTimeout = errors.New("permission decision timed out")

// Config configures a Client. Zero values use defaults.
type Config struct {
	URL               string
	ClientID          string
	Subject           string
	VersionConstraint string
	RequestTimeout    time.Duration
	PermissionTimeout time.Duration
}

// Client talks to the broker over COMMS request/reply. The connection is
// opened on first use and reopened if it drops.
type Client struct {
	cfg Config

	mu   sync.RWMutex
	nc   *comms.Conn
	owns bool
}

// New creates a Client that connects to cfg.URL lazily.
func New(cfg Config) *Client {
	if cfg.Subject == "" {
		cfg.Subject = commsutil.SubjectBroker
	}
	if cfg.VersionConstraint == "" {
		cfg.VersionConstraint = DefaultVersionConstraint
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.PermissionTimeout <= 0 {
		cfg.PermissionTimeout = defaultPermissionTimeout
	}
	return &Client{cfg: cfg}
}

// NewWithConn creates a Client over an existing connection. Close does not
// close nc.
func NewWithConn(nc *comms.Conn, cfg Config) *Client {
	c := New(cfg)
	c.nc = nc
	return c
}

// ClientID returns the identity this client presents to the broker.
func (c *Client) ClientID() string { return c.cfg.ClientID }

// getOrConnect gets the existing connection or opens a new one.
func (c *Client) getOrConnect() (*comms.Conn, error) {
	c.mu.RLock()
	if c.nc != nil && (c.nc.IsConnected() || !c.owns) {
		nc := c.nc
		c.mu.RUnlock()
		return nc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.nc != nil && (c.nc.IsConnected() || !c.owns) {
		return c.nc, nil
	}
	if c.nc != nil {
		c.nc.Close()
		c.nc = nil
	}
	if c.cfg.URL == "" {
		return nil, fmt.Errorf("%s - broker URL is not configured", logPrefix)
	}

	nc, err := commsutil.Connect(c.cfg.URL, "launcher-"+c.cfg.ClientID, comms.MaxReconnects(5))
	if err != nil {
		return nil, err
	}
	c.nc = nc
	c.owns = true
	return nc, nil
}

// Close closes the connection if the client opened it.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nc != nil && c.owns {
		slog.Debug(fmt.Sprintf("%s - Closing broker connection", logPrefix))
		c.nc.Close()
	}
	c.nc = nil
	c.owns = false
}

// call sends one request and decodes the result into out (which may be nil).
func (c *Client) call(ctx context.Context, method string, params, out interface{}, timeout time.Duration) error {
	nc, err := c.getOrConnect()
	if err != nil {
		return err
	}

	if timeout <= 0 {
		timeout = c.cfg.RequestTimeout
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	id := uuid.NewString()
	req := &brokerapi.Request{
		ID:     id,
		Method: method,
		Ctx: &brokerapi.CallerContext{
			ClientID:  c.cfg.ClientID,
			RequestID: id,
			TimeoutMs: int(timeout / time.Millisecond),
		},
	}
	if params != nil {
		raw, err := commsutil.EncodePayload(params)
		if err != nil {
			return fmt.Errorf("%s - failed to encode %s params: %w", logPrefix, method, err)
		}
		req.Params = raw
	}

	payload, err := commsutil.EncodePayload(req)
	if err != nil {
		return fmt.Errorf("%s - failed to encode request: %w", logPrefix, err)
	}

	msg, err := nc.RequestWithContext(ctx, c.cfg.Subject, payload)
	if err != nil {
		return fmt.Errorf("%s - broker did not respond to %s: %w", logPrefix, method, err)
	}

	var resp brokerapi.Response
	if err := commsutil.DecodePayload(msg.Data, &resp); err != nil {
		return fmt.Errorf("%s - failed to decode %s response: %w", logPrefix, method, err)
	}
	if !resp.Ok {
		if resp.Error == nil {
			return brokerapi.NewBrokerError(brokerapi.CodeInternalError, method+" failed")
		}
		return brokerapi.NewBrokerError(resp.Error.Code, resp.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := commsutil.DecodeParams(resp.Result, out); err != nil {
		return fmt.Errorf("%s - failed to decode %s result: %w", logPrefix, method, err)
	}
	return nil
}

var _ launch.Broker = (*Client)(nil)
