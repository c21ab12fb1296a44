package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/launchkit/pkg/brokerapi"
	"github.com/morezero/launchkit/pkg/commsutil"
)

const serveLogPrefix = "dispatcher:serve"

// Handler returns a COMMS message handler that decodes requests, dispatches
// them under a per-request timeout and replies. The client's TimeoutMs
// shortens the timeout but never extends it.
func (d *Dispatcher) Handler(ctx context.Context, requestTimeout time.Duration) comms.MsgHandler {
	return func(msg *comms.Msg) {
		var req brokerapi.Request
		if err := commsutil.DecodePayload(msg.Data, &req); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", serveLogPrefix, err))
			respond(msg, errorResponse("", brokerapi.CodeInvalidRequest, "Failed to decode request", false))
			return
		}

		timeout := requestTimeout
		if req.Ctx != nil && req.Ctx.TimeoutMs > 0 {
			if client := time.Duration(req.Ctx.TimeoutMs) * time.Millisecond; client < timeout {
				timeout = client
			}
		}
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		respond(msg, d.Dispatch(reqCtx, &req))
	}
}

// Subscribe serves the dispatcher on subject. Request contexts derive from
// ctx.
func (d *Dispatcher) Subscribe(ctx context.Context, nc *comms.Conn, subject string, requestTimeout time.Duration) (*comms.Subscription, error) {
	sub, err := nc.Subscribe(subject, d.Handler(ctx, requestTimeout))
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", serveLogPrefix, subject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", serveLogPrefix, subject))
	return sub, nil
}

func respond(msg *comms.Msg, resp *brokerapi.Response) {
	data, err := commsutil.EncodePayload(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", serveLogPrefix, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to respond: %v", serveLogPrefix, err))
	}
}
