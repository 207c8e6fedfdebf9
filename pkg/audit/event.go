// Package audit dispatches authentication events to subscribers.
package audit

import (
	"time"

	"github.com/tendant/simple-admin-auth/pkg/user"
)

const (
	EventAuthSuccess = "admin.auth.success"
	EventAuthError   = "admin.auth.error"
	EventLogout      = "admin.logout"
	EventRequest     = "admin.request"

	TelemetryFirstAdmin = "didCreateFirstAdmin"
)

const ProviderLocal = "local"

type Kind string

const (
	KindEvent     Kind = "event"
	KindTelemetry Kind = "telemetry"
)

// Payload is the body of an authentication event. User is always sanitized.
type Payload struct {
	Provider string                 `json:"provider,omitempty"`
	User     *user.SanitizedUser    `json:"user,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type Event struct {
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Payload   Payload   `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}
