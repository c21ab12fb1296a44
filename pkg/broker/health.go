package broker

import (
	"context"
	"time"
)

// Health checks the broker service health.
func (b *Broker) Health(ctx context.Context) *HealthOutput {
	callerOk := b.caller != nil
	if callerOk && b.probe != nil {
		callerOk = b.probe(ctx) == nil
	}

	granted, pending := 0, 0
	for _, c := range b.Clients() {
		switch c.State {
		case PermissionGranted:
			granted++
		case PermissionPending:
			pending++
		}
	}

	status := "healthy"
	if !callerOk {
		status = "unhealthy"
	}

	return &HealthOutput{
		Status: status,
		Checks: HealthChecks{
			Caller:         callerOk,
			GrantedClients: granted,
			PendingClients: pending,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
