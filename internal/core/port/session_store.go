package port

import (
	"context"
	"time"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/domain"
)

// SessionStore persists session registry state in the shared key-value store.
//
// WriteSession and PurgeSession are multi-key updates and must be applied as a
// single atomic batch so that a fault between steps cannot leave a device
// record without a reachable session or vice versa.
type SessionStore interface {
	// WriteSession stores the refresh credential, active-session pointer,
	// device record, and device-set membership for the session in one batch.
	// Every key shares the supplied TTL.
	WriteSession(ctx context.Context, session domain.Session, refreshToken string, ttl time.Duration) error

	// PurgeSession removes the refresh credential, device record, and device-set
	// membership, and clears the active-session pointer only when it still
	// points at sessionID. Purging an already-gone session is a no-op.
	PurgeSession(ctx context.Context, userID, sessionID string) error

	// ActiveSessionID returns the current active session pointer for the user,
	// or repository.ErrNotFound when none is set.
	ActiveSessionID(ctx context.Context, userID string) (string, error)

	// GetSession loads a device record. Missing or malformed records surface as
	// repository.ErrNotFound, never as a decode failure.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// TouchSession rewrites the device record with refreshed last-activity
	// metadata, re-applying the TTL.
	TouchSession(ctx context.Context, session domain.Session, ttl time.Duration) error

	// SessionIDsForUser enumerates the user's device-session set.
	SessionIDsForUser(ctx context.Context, userID string) ([]string, error)

	// IsUserSession reports whether sessionID belongs to the user's device set.
	IsUserSession(ctx context.Context, userID, sessionID string) (bool, error)
}

// RefreshTokenStore exposes the refresh-credential record and the single-use
// redemption marker that backs reuse detection.
type RefreshTokenStore interface {
	// Get returns the currently-valid refresh token string for the session, or
	// repository.ErrNotFound when none exists.
	Get(ctx context.Context, userID, sessionID string) (string, error)

	// MarkUsed records a redeemed token via a conditional set-if-absent write
	// keyed by the one-way hash of the raw token string. It returns false when
	// the marker already existed, i.e. this exact token was redeemed before.
	// The conditional write is what closes the concurrent-redemption race; a
	// separate existence check would reintroduce it.
	MarkUsed(ctx context.Context, tokenHash string, ttl time.Duration) (bool, error)
}

// CSRFStore keeps the server-side half of the double-submit CSRF token.
type CSRFStore interface {
	Set(ctx context.Context, userID, token string, ttl time.Duration) error
	// Get returns repository.ErrNotFound when no token is stored (expired or
	// never issued).
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

// UserCache is a best-effort projection of user records with its own TTL.
// It sits outside the session consistency boundary.
type UserCache interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Set(ctx context.Context, user domain.User, ttl time.Duration) error
	Delete(ctx context.Context, userID string) error
}
