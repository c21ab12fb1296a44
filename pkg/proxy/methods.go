package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/launchkit/pkg/brokerapi"
	"github.com/morezero/launchkit/pkg/commsutil"
	"github.com/morezero/launchkit/pkg/events"
	"github.com/morezero/launchkit/pkg/intent"
	"github.com/morezero/launchkit/pkg/procexec"
	"github.com/morezero/launchkit/pkg/semver"
)

// Version asks the broker for its version and uid.
func (c *Client) Version(ctx context.Context) (*brokerapi.PingResult, error) {
	var out brokerapi.PingResult
	if err := c.call(ctx, brokerapi.MethodPing, nil, &out, 0); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping reports whether a compatible broker answers.
func (c *Client) Ping(ctx context.Context) bool {
	res, err := c.Version(ctx)
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - ping failed: %v", logPrefix, err))
		return false
	}
	if err := semver.CheckCompatible(res.Version, c.cfg.VersionConstraint); err != nil {
		slog.Warn(fmt.Sprintf("%s - broker %s rejected: %v", logPrefix, res.Version, err))
		return false
	}
	return true
}

// HasPermission reports whether this client is currently granted.
func (c *Client) HasPermission(ctx context.Context) bool {
	var out brokerapi.PermissionResult
	if err := c.call(ctx, brokerapi.MethodCheckPermission, nil, &out, 0); err != nil {
		slog.Debug(fmt.Sprintf("%s - permission check failed: %v", logPrefix, err))
		return false
	}
	return out.Granted
}

// RequestPermission asks the broker to grant this client. When the decision
// is pending it waits for the decision event, up to the permission timeout.
func (c *Client) RequestPermission(ctx context.Context) (bool, error) {
	nc, err := c.getOrConnect()
	if err != nil {
		return false, err
	}

	// Subscribe before asking so the decision cannot be missed.
	decisions := make(chan *comms.Msg, 1)
	sub, err := nc.ChanSubscribe(commsutil.BuildPermissionSubject(c.cfg.ClientID), decisions)
	if err != nil {
		return false, fmt.Errorf("%s - failed to subscribe for decision: %w", logPrefix, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	var out brokerapi.PermissionResult
	if err := c.call(ctx, brokerapi.MethodRequestPermission, nil, &out, 0); err != nil {
		return false, err
	}
	if !out.Pending {
		return out.Granted, nil
	}

	slog.Info(fmt.Sprintf("%s - Waiting up to %s for permission decision", logPrefix, c.cfg.PermissionTimeout))
	timer := time.NewTimer(c.cfg.PermissionTimeout)
	defer timer.Stop()

	for {
		select {
		case msg := <-decisions:
			var ev events.PermissionDecisionEvent
			if err := commsutil.DecodePayload(msg.Data, &ev); err != nil {
				slog.Warn(fmt.Sprintf("%s - ignoring malformed decision: %v", logPrefix, err))
				continue
			}
			if ev.ClientID != c.cfg.ClientID {
				continue
			}
			return ev.Granted, nil
		case <-timer.C:
			return false, ErrPermissionTimeout
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// DecidePermission grants or denies clientID. The broker may restrict this
// to admin clients.
func (c *Client) DecidePermission(ctx context.Context, clientID string, granted bool) (*brokerapi.PermissionResult, error) {
	var out brokerapi.PermissionResult
	params := &brokerapi.PermissionParams{ClientID: clientID, Granted: granted}
	if err := c.call(ctx, brokerapi.MethodDecidePermission, params, &out, 0); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartActivity asks the broker to start an activity.
func (c *Client) StartActivity(ctx context.Context, in intent.Intent) error {
	return c.call(ctx, brokerapi.MethodStartActivity, &brokerapi.IntentParams{Intent: in}, nil, 0)
}

// BroadcastIntent asks the broker to send a broadcast.
func (c *Client) BroadcastIntent(ctx context.Context, in intent.Intent) error {
	return c.call(ctx, brokerapi.MethodBroadcastIntent, &brokerapi.IntentParams{Intent: in}, nil, 0)
}

// StartService asks the broker to start a service.
func (c *Client) StartService(ctx context.Context, in intent.Intent) error {
	return c.call(ctx, brokerapi.MethodStartService, &brokerapi.IntentParams{Intent: in}, nil, 0)
}

// NewProcess runs argv on the broker and returns its outcome. The request
// waits for the process timeout plus the request timeout.
func (c *Client) NewProcess(ctx context.Context, argv []string, timeout time.Duration) (*procexec.Result, error) {
	params := &brokerapi.ProcessParams{Argv: argv, TimeoutMs: int(timeout / time.Millisecond)}
	var out brokerapi.ProcessResult
	if err := c.call(ctx, brokerapi.MethodNewProcess, params, &out, timeout+c.cfg.RequestTimeout); err != nil {
		return nil, err
	}
	return &out, nil
}

// IsBrokerError reports whether err is a broker error with the given code.
func IsBrokerError(err error, code string) bool {
	var be *brokerapi.BrokerError
	return errors.As(err, &be) && be.Code == code
}
