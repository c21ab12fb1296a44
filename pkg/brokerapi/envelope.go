// Package brokerapi defines the JSON envelopes and method payloads exchanged
// with the privileged launch broker over COMMS request/reply.
package brokerapi

import (
	"encoding/json"

	"github.com/morezero/launchkit/pkg/intent"
	"github.com/morezero/launchkit/pkg/procexec"
)

// Broker methods.
const (
	MethodPing              = "ping"
	MethodCheckPermission   = "checkPermission"
	MethodRequestPermission = "requestPermission"
	MethodDecidePermission  = "decidePermission"
	MethodStartActivity     = "startActivity"
	MethodBroadcastIntent   = "broadcastIntent"
	MethodStartService      = "startService"
	MethodNewProcess        = "newProcess"
	MethodHealth            = "health"
)

// Error codes carried in ErrorDetail.Code.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodeMethodNotFound   = "METHOD_NOT_FOUND"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeCallFailed       = "CALL_FAILED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// Request is the JSON envelope for incoming COMMS broker requests.
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	Ctx    *CallerContext  `json:"ctx,omitempty"`
}

// Response is the JSON envelope for COMMS broker responses.
type Response struct {
	ID     string          `json:"id"`
	Ok     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorDetail    `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// BrokerError is a structured error returned by the broker.
type BrokerError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *BrokerError) Error() string {
	return e.Code + ": " + e.Message
}

// NewBrokerError creates a new BrokerError.
func NewBrokerError(code, message string) *BrokerError {
	return &BrokerError{Code: code, Message: message}
}

// CallerContext identifies the client making the request.
type CallerContext struct {
	ClientID  string `json:"clientId"`
	RequestID string `json:"requestId,omitempty"`
	TimeoutMs int    `json:"timeoutMs,omitempty"`
}

// PingResult answers MethodPing.
type PingResult struct {
	Version string `json:"version"`
	UID     int    `json:"uid"`
}

// PermissionParams names the client a permission decision applies to.
type PermissionParams struct {
	ClientID string `json:"clientId"`
	Granted  bool   `json:"granted"`
}

// PermissionResult answers the permission methods. Pending means the
// decision will arrive later as a permission event.
type PermissionResult struct {
	Granted bool `json:"granted"`
	Pending bool `json:"pending,omitempty"`
}

// IntentParams carries the intent for the structured launch calls.
type IntentParams struct {
	Intent intent.Intent `json:"intent"`
}

// ProcessParams describes a process to spawn on the broker.
type ProcessParams struct {
	Argv      []string `json:"argv"`
	TimeoutMs int      `json:"timeoutMs"`
}

// ProcessResult is the outcome of MethodNewProcess.
type ProcessResult = procexec.Result
