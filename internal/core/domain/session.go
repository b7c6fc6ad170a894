package domain

import "time"

// Session is the device-bound login context tracked in the session store.
// Its identity survives token rotation: rotating a refresh token re-issues
// credentials for the same session id.
type Session struct {
	ID                string    `json:"session_id"`
	UserID            string    `json:"user_id"`
	DeviceFingerprint string    `json:"device_fingerprint"`
	CreatedAt         time.Time `json:"created_at"`
	LastActivity      time.Time `json:"last_activity"`
	UserAgent         string    `json:"user_agent"`
	IP                string    `json:"ip"`
}

// Touch updates last-activity metadata when the session handles a request.
func (s *Session) Touch(at time.Time) {
	s.LastActivity = at.UTC()
}

// DeviceInfo carries the request metadata a session is enriched with.
// The fingerprint derived from it is display/audit material, not an
// authentication factor.
type DeviceInfo struct {
	UserAgent      string
	AcceptLanguage string
	AcceptEncoding string
	IP             string
}

// SessionSummary is the per-device projection returned when enumerating a
// user's active sessions.
type SessionSummary struct {
	SessionID         string    `json:"session_id"`
	DeviceFingerprint string    `json:"device_fingerprint"`
	UserAgent         string    `json:"user_agent"`
	IP                string    `json:"ip"`
	CreatedAt         time.Time `json:"created_at"`
	LastActivity      time.Time `json:"last_activity"`
	Current           bool      `json:"is_current"`
}

// SessionCredentials bundles the artifacts minted when a session is
// established or rotated.
type SessionCredentials struct {
	SessionID    string
	AccessToken  string
	RefreshToken string
	CSRFToken    string
}
