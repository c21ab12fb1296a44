// Package events defines event types and publisher interfaces for broker
// permission decisions.
package events

// PermissionDecisionEvent is emitted when a client's permission request is
// decided.
type PermissionDecisionEvent struct {
	ClientID  string `json:"clientId"`
	Granted   bool   `json:"granted"`
	Timestamp string `json:"timestamp"`
	// Reason is set when the decision came from policy rather than an
	// operator, e.g. "allowlist" or "auto-grant".
	Reason string `json:"reason,omitempty"`
}
