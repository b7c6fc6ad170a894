package port

import (
	"context"
	"time"
)

// Event types emitted on the security stream.
const (
	EventUserLogin          = "auth.user.login"
	EventSessionCreated     = "auth.session.created"
	EventSessionInvalidated = "auth.session.invalidated"
	EventReuseDetected      = "auth.session.reuse_detected"
	EventDeviceTerminated   = "auth.device.terminated"
)

// SecurityEvent is the payload published for session lifecycle changes.
type SecurityEvent struct {
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id,omitempty"`
	Fingerprint string    `json:"device_fingerprint,omitempty"`
	IP          string    `json:"ip,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	At          time.Time `json:"at"`
}

// EventPublisher delivers security events to the streaming backbone.
// Publishing is fire-and-forget from the caller's perspective and must never
// sit on the request critical path.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, event SecurityEvent) error
}

// NotificationSender delivers verification artifacts (email verification
// links, login OTPs) out of band. Delivery itself is an external concern.
type NotificationSender interface {
	SendVerificationLink(ctx context.Context, email, token string) error
	SendOTP(ctx context.Context, email, code string) error
}
