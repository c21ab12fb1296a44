package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/morezero/launchkit/pkg/brokerapi"
	"github.com/morezero/launchkit/pkg/events"
)

const permissionLogPrefix = "broker:permission"

// CheckPermission reports the client's current standing without changing it.
func (b *Broker) CheckPermission(_ context.Context, clientID string) (*brokerapi.PermissionResult, error) {
	if clientID == "" {
		return nil, brokerapi.NewBrokerError(brokerapi.CodeInvalidArgument, "clientId is required")
	}
	return permissionResult(b.state(clientID)), nil
}

// RequestPermission asks for the client to be granted. Policy may grant it
// immediately; otherwise the request stays pending until DecidePermission.
// A denied client stays denied until an operator decides again.
func (b *Broker) RequestPermission(ctx context.Context, clientID string) (*brokerapi.PermissionResult, error) {
	if clientID == "" {
		return nil, brokerapi.NewBrokerError(brokerapi.CodeInvalidArgument, "clientId is required")
	}

	b.mu.Lock()
	state := b.permissions[clientID]
	reason := ""
	switch {
	case state == PermissionGranted || state == PermissionDenied:
	case b.allowed[clientID]:
		state, reason = PermissionGranted, "allowlist"
	case b.config.AutoGrant:
		state, reason = PermissionGranted, "auto-grant"
	default:
		state = PermissionPending
	}
	b.permissions[clientID] = state
	b.mu.Unlock()

	if reason != "" {
		b.publishDecision(ctx, clientID, true, reason)
	} else if state == PermissionPending {
		slog.Info(fmt.Sprintf("%s - Permission requested by %s, awaiting decision", permissionLogPrefix, clientID))
	}

	return permissionResult(state), nil
}

// DecidePermission records an operator decision for the client and
// publishes it.
func (b *Broker) DecidePermission(ctx context.Context, clientID string, granted bool) (*brokerapi.PermissionResult, error) {
	if clientID == "" {
		return nil, brokerapi.NewBrokerError(brokerapi.CodeInvalidArgument, "clientId is required")
	}

	state := PermissionDenied
	if granted {
		state = PermissionGranted
	}

	b.mu.Lock()
	b.permissions[clientID] = state
	b.mu.Unlock()

	slog.Info(fmt.Sprintf("%s - Permission for %s set to %s", permissionLogPrefix, clientID, state))
	b.publishDecision(ctx, clientID, granted, "")

	return permissionResult(state), nil
}

// CanDecide reports whether actor may decide the permission of subject.
// Only configured admins decide, and never for themselves. With no admin
// list, grants come from the allowlist or auto-grant alone.
func (b *Broker) CanDecide(actor, subject string) bool {
	if actor == "" || actor == subject {
		return false
	}
	return b.admins[actor]
}

// Clients lists the permission table sorted by client ID.
func (b *Broker) Clients() []ClientStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]ClientStatus, 0, len(b.permissions))
	for id, state := range b.permissions {
		out = append(out, ClientStatus{ClientID: id, State: state})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}

func (b *Broker) state(clientID string) PermissionState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.permissions[clientID]
}

// requireGranted returns PERMISSION_DENIED unless the client is granted.
func (b *Broker) requireGranted(clientID string) error {
	if clientID == "" {
		return brokerapi.NewBrokerError(brokerapi.CodePermissionDenied, "client is not identified")
	}
	if b.state(clientID) != PermissionGranted {
		return brokerapi.NewBrokerError(brokerapi.CodePermissionDenied, fmt.Sprintf("client %s is not granted", clientID))
	}
	return nil
}

func (b *Broker) publishDecision(ctx context.Context, clientID string, granted bool, reason string) {
	event := &events.PermissionDecisionEvent{
		ClientID:  clientID,
		Granted:   granted,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Reason:    reason,
	}
	if err := b.publisher.PublishDecision(ctx, event); err != nil {
		slog.Warn(fmt.Sprintf("%s - Failed to publish decision for %s: %v", permissionLogPrefix, clientID, err))
	}
}
