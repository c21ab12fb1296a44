package commsutil

import (
	"strings"
)

// Default COMMS subjects.
const (
	SubjectBroker = "launch.broker.v1"
	// SubjectPermissionPrefix prefixes per-client permission decision subjects.
	SubjectPermissionPrefix = "launch.broker.permission"
)

// BuildPermissionSubject builds the subject a client listens on for the
// decision about its permission request.
func BuildPermissionSubject(clientID string) string {
	return SubjectPermissionPrefix + "." + SanitizeToken(clientID)
}

// SanitizeToken makes s safe to use as a single subject token. Separators,
// wildcards and whitespace become underscores.
func SanitizeToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}
