package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/launchkit/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// DefaultDecisionSubject receives every permission decision, for auditing.
const DefaultDecisionSubject = "launch.broker.decisions"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// DecisionSubject overrides the global decision subject.
	DecisionSubject string
}

// CommsPublisher publishes permission decisions to COMMS subjects.
type CommsPublisher struct {
	nc              *comms.Conn
	decisionSubject string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	subject := DefaultDecisionSubject
	if opts != nil && opts.DecisionSubject != "" {
		subject = opts.DecisionSubject
	}
	return &CommsPublisher{nc: nc, decisionSubject: subject}
}

// PublishDecision publishes the event to the requesting client's permission
// subject and to the global decision subject.
func (p *CommsPublisher) PublishDecision(_ context.Context, event *PermissionDecisionEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	clientSubject := commsutil.BuildPermissionSubject(event.ClientID)
	if err := p.nc.Publish(clientSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, clientSubject, err))
		return err
	}

	if err := p.nc.Publish(p.decisionSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, p.decisionSubject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published decision for %s granted=%t", commsPublisherLogPrefix, event.ClientID, event.Granted))
	return nil
}
