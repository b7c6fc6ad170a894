package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/domain"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/port"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/repository"
)

// SessionRepository owns the session registry keys: the refresh credential,
// the active-session pointer, the device record, and the per-user device set.
type SessionRepository struct {
	client *red.Client
	keys   keySpace
}

// NewSessionRepository wires a Redis client into the session registry store.
func NewSessionRepository(client *red.Client, keyPrefix string) *SessionRepository {
	return &SessionRepository{client: client, keys: newKeySpace(strings.TrimSpace(keyPrefix))}
}

// WriteSession persists all session registry state in a single atomic batch.
// Every key carries the same TTL so the records expire together when never
// explicitly cleaned up.
func (r *SessionRepository) WriteSession(ctx context.Context, session domain.Session, refreshToken string, ttl time.Duration) error {
	if strings.TrimSpace(session.ID) == "" || strings.TrimSpace(session.UserID) == "" {
		return fmt.Errorf("session id and user id are required")
	}
	if refreshToken == "" {
		return fmt.Errorf("refresh token is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	record, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe red.Pipeliner) error {
		pipe.Set(ctx, r.keys.refreshToken(session.UserID, session.ID), refreshToken, ttl)
		pipe.Set(ctx, r.keys.activeSession(session.UserID), session.ID, ttl)
		pipe.Set(ctx, r.keys.sessionDevice(session.ID), record, ttl)
		pipe.SAdd(ctx, r.keys.deviceSessions(session.UserID), session.ID)
		pipe.Expire(ctx, r.keys.deviceSessions(session.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis write session batch: %w", err)
	}

	return nil
}

// PurgeSession removes every record belonging to the session in one batch.
// The active-session pointer is cleared only when it still references this
// session, so a newer login's pointer is never destroyed by a stale logout.
// The cached user projection and CSRF token are evicted alongside.
// Purging a session that is already gone is a no-op.
func (r *SessionRepository) PurgeSession(ctx context.Context, userID, sessionID string) error {
	userID = strings.TrimSpace(userID)
	sessionID = strings.TrimSpace(sessionID)
	if userID == "" || sessionID == "" {
		return fmt.Errorf("user id and session id are required")
	}

	active, err := r.client.Get(ctx, r.keys.activeSession(userID)).Result()
	if err != nil && !errors.Is(err, red.Nil) {
		return fmt.Errorf("redis get active session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe red.Pipeliner) error {
		pipe.Del(ctx, r.keys.refreshToken(userID, sessionID))
		pipe.Del(ctx, r.keys.sessionDevice(sessionID))
		pipe.SRem(ctx, r.keys.deviceSessions(userID), sessionID)
		if active == sessionID {
			pipe.Del(ctx, r.keys.activeSession(userID))
		}
		pipe.Del(ctx, r.keys.userCache(userID))
		pipe.Del(ctx, r.keys.csrf(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis purge session batch: %w", err)
	}

	return nil
}

// ActiveSessionID returns the active-session pointer for the user.
func (r *SessionRepository) ActiveSessionID(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	value, err := r.client.Get(ctx, r.keys.activeSession(userID)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis get active session: %w", err)
	}

	return value, nil
}

// GetSession loads the device record for a session. A missing or malformed
// record reads as not-found rather than an error: a record the service cannot
// parse is treated the same as a session that no longer exists.
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	data, err := r.client.Get(ctx, r.keys.sessionDevice(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get session record: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, repository.ErrNotFound
	}
	if session.ID == "" {
		session.ID = sessionID
	}

	return &session, nil
}

// TouchSession rewrites the device record with updated activity metadata,
// re-applying the registry TTL.
func (r *SessionRepository) TouchSession(ctx context.Context, session domain.Session, ttl time.Duration) error {
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	record, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	if err := r.client.Set(ctx, r.keys.sessionDevice(session.ID), record, ttl).Err(); err != nil {
		return fmt.Errorf("redis touch session: %w", err)
	}

	return nil
}

// SessionIDsForUser enumerates the user's registered device sessions.
func (r *SessionRepository) SessionIDsForUser(ctx context.Context, userID string) ([]string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	members, err := r.client.SMembers(ctx, r.keys.deviceSessions(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list device sessions: %w", err)
	}

	return members, nil
}

// IsUserSession reports whether the session belongs to the user's device set.
func (r *SessionRepository) IsUserSession(ctx context.Context, userID, sessionID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	sessionID = strings.TrimSpace(sessionID)
	if userID == "" || sessionID == "" {
		return false, fmt.Errorf("user id and session id are required")
	}

	member, err := r.client.SIsMember(ctx, r.keys.deviceSessions(userID), sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("redis check device session: %w", err)
	}

	return member, nil
}

var _ port.SessionStore = (*SessionRepository)(nil)
