// Package broker implements the privileged launch broker: it tracks which
// clients may use it and performs launches and process spawns on their
// behalf.
package broker

import "github.com/morezero/launchkit/pkg/brokerapi"

// Version is the broker protocol version reported by ping.
const Version = "1.0.0"

// PermissionState is a client's standing with the broker.
type PermissionState string

const (
	PermissionUnknown PermissionState = ""
	PermissionPending PermissionState = "pending"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// HealthOutput holds the result of the health check.
type HealthOutput struct {
	Status    string       `json:"status"`
	Checks    HealthChecks `json:"checks"`
	Timestamp string       `json:"timestamp"`
}

// HealthChecks holds individual health check results.
type HealthChecks struct {
	Caller         bool `json:"caller"`
	GrantedClients int  `json:"grantedClients"`
	PendingClients int  `json:"pendingClients"`
}

// ClientStatus describes one client in the permission table.
type ClientStatus struct {
	ClientID string          `json:"clientId"`
	State    PermissionState `json:"state"`
}

func permissionResult(state PermissionState) *brokerapi.PermissionResult {
	return &brokerapi.PermissionResult{
		Granted: state == PermissionGranted,
		Pending: state == PermissionPending,
	}
}
