// Package dispatcher routes broker envelopes to Broker methods.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/launchkit/pkg/broker"
	"github.com/morezero/launchkit/pkg/brokerapi"
	"github.com/morezero/launchkit/pkg/commsutil"
	"github.com/morezero/launchkit/pkg/intent"
)

const logPrefix = "dispatcher:dispatch"

// Dispatcher routes COMMS requests to broker methods.
type Dispatcher struct {
	broker *broker.Broker
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(b *broker.Broker) *Dispatcher {
	return &Dispatcher{broker: b}
}

// Dispatch routes a request to the appropriate broker method and returns a response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *brokerapi.Request) *brokerapi.Response {
	clientID := ""
	if req.Ctx != nil {
		clientID = req.Ctx.ClientID
	}
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s client=%s", logPrefix, req.Method, req.ID, clientID))

	switch req.Method {
	case brokerapi.MethodPing:
		return d.handlePing(ctx, req)
	case brokerapi.MethodHealth:
		return okResponse(req.ID, d.broker.Health(ctx))
	case brokerapi.MethodCheckPermission:
		return d.handlePermission(ctx, req, clientID, d.broker.CheckPermission)
	case brokerapi.MethodRequestPermission:
		return d.handlePermission(ctx, req, clientID, d.broker.RequestPermission)
	case brokerapi.MethodDecidePermission:
		return d.handleDecidePermission(ctx, req, clientID)
	case brokerapi.MethodStartActivity:
		return d.handleIntent(ctx, req, clientID, d.broker.StartActivity)
	case brokerapi.MethodBroadcastIntent:
		return d.handleIntent(ctx, req, clientID, d.broker.BroadcastIntent)
	case brokerapi.MethodStartService:
		return d.handleIntent(ctx, req, clientID, d.broker.StartService)
	case brokerapi.MethodNewProcess:
		return d.handleNewProcess(ctx, req, clientID)
	default:
		return errorResponse(req.ID, brokerapi.CodeMethodNotFound, fmt.Sprintf("Unknown method: %s", req.Method), false)
	}
}

func (d *Dispatcher) handlePing(ctx context.Context, req *brokerapi.Request) *brokerapi.Response {
	version, uid := d.broker.Ping(ctx)
	return okResponse(req.ID, &brokerapi.PingResult{Version: version, UID: uid})
}

// handlePermission serves checkPermission and requestPermission. The client
// is taken from the caller context, or from params when the context is empty.
func (d *Dispatcher) handlePermission(
	ctx context.Context,
	req *brokerapi.Request,
	clientID string,
	fn func(context.Context, string) (*brokerapi.PermissionResult, error),
) *brokerapi.Response {
	var params brokerapi.PermissionParams
	if err := commsutil.DecodeParams(req.Params, &params); err != nil {
		return errorResponse(req.ID, brokerapi.CodeInvalidArgument, fmt.Sprintf("Failed to parse %s params", req.Method), false)
	}
	if clientID == "" {
		clientID = params.ClientID
	}

	result, err := fn(ctx, clientID)
	if err != nil {
		return brokerErrorToResponse(req.ID, err)
	}
	return okResponse(req.ID, result)
}

func (d *Dispatcher) handleDecidePermission(ctx context.Context, req *brokerapi.Request, actor string) *brokerapi.Response {
	var params brokerapi.PermissionParams
	if err := commsutil.DecodeParams(req.Params, &params); err != nil {
		return errorResponse(req.ID, brokerapi.CodeInvalidArgument, "Failed to parse decidePermission params", false)
	}
	if !d.broker.CanDecide(actor, params.ClientID) {
		return errorResponse(req.ID, brokerapi.CodePermissionDenied, fmt.Sprintf("client %q may not decide the permission of %q", actor, params.ClientID), false)
	}

	result, err := d.broker.DecidePermission(ctx, params.ClientID, params.Granted)
	if err != nil {
		return brokerErrorToResponse(req.ID, err)
	}
	return okResponse(req.ID, result)
}

func (d *Dispatcher) handleIntent(
	ctx context.Context,
	req *brokerapi.Request,
	clientID string,
	fn func(context.Context, string, intent.Intent) error,
) *brokerapi.Response {
	var params brokerapi.IntentParams
	if len(req.Params) == 0 {
		return errorResponse(req.ID, brokerapi.CodeInvalidArgument, fmt.Sprintf("%s requires an intent", req.Method), false)
	}
	if err := commsutil.DecodeParams(req.Params, &params); err != nil {
		return errorResponse(req.ID, brokerapi.CodeInvalidArgument, fmt.Sprintf("Failed to parse %s params", req.Method), false)
	}

	if err := fn(ctx, clientID, params.Intent); err != nil {
		return brokerErrorToResponse(req.ID, err)
	}
	return okResponse(req.ID, struct{}{})
}

func (d *Dispatcher) handleNewProcess(ctx context.Context, req *brokerapi.Request, clientID string) *brokerapi.Response {
	var params brokerapi.ProcessParams
	if err := commsutil.DecodeParams(req.Params, &params); err != nil {
		return errorResponse(req.ID, brokerapi.CodeInvalidArgument, "Failed to parse newProcess params", false)
	}

	timeout := time.Duration(params.TimeoutMs) * time.Millisecond
	result, err := d.broker.NewProcess(ctx, clientID, params.Argv, timeout)
	if err != nil {
		return brokerErrorToResponse(req.ID, err)
	}
	return okResponse(req.ID, result)
}

// --- helpers ---

func okResponse(id string, result interface{}) *brokerapi.Response {
	data, err := commsutil.EncodePayload(result)
	if err != nil {
		return errorResponse(id, brokerapi.CodeInternalError, fmt.Sprintf("Failed to encode result: %v", err), false)
	}
	return &brokerapi.Response{ID: id, Ok: true, Result: data}
}

func errorResponse(id, code, message string, retryable bool) *brokerapi.Response {
	return &brokerapi.Response{
		ID: id,
		Ok: false,
		Error: &brokerapi.ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

func brokerErrorToResponse(id string, err error) *brokerapi.Response {
	var brokerErr *brokerapi.BrokerError
	if errors.As(err, &brokerErr) {
		retryable := brokerErr.Code == brokerapi.CodeInternalError
		return errorResponse(id, brokerErr.Code, brokerErr.Message, retryable)
	}
	return errorResponse(id, brokerapi.CodeInternalError, err.Error(), true)
}
