package events

import "context"

// EventPublisher is the interface for publishing permission decisions.
type EventPublisher interface {
	PublishDecision(ctx context.Context, event *PermissionDecisionEvent) error
}

// NoOpPublisher is an EventPublisher that does nothing (for in-process usage without events).
type NoOpPublisher struct{}

// PublishDecision is a no-op.
func (p *NoOpPublisher) PublishDecision(_ context.Context, _ *PermissionDecisionEvent) error {
	return nil
}

// CallbackPublisher is an EventPublisher that calls a callback function (for testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *PermissionDecisionEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *PermissionDecisionEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishDecision calls the callback.
func (p *CallbackPublisher) PublishDecision(ctx context.Context, event *PermissionDecisionEvent) error {
	return p.callback(ctx, event)
}
