package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/domain"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/port"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/logger"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/security"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/repository"
)

const defaultSessionTTL = 7 * 24 * time.Hour

// SessionService is the session registry: it owns the user → active session
// pointer, the per-session device records, and the per-user device set, and
// mints the credential bundle for each established session.
//
// All cross-request coordination happens through the store's atomicity
// primitives; the service keeps no process-local session state and is safe to
// run in any number of concurrent instances.
type SessionService struct {
	sessions port.SessionStore
	codec    *security.TokenCodec
	csrf     *CSRFService
	events   port.EventPublisher
	logger   *zap.Logger
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionService constructs the session registry service.
func NewSessionService(
	sessions port.SessionStore,
	codec *security.TokenCodec,
	csrf *CSRFService,
	events port.EventPublisher,
	sessionTTL time.Duration,
	log *zap.Logger,
) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}

	return &SessionService{
		sessions: sessions,
		codec:    codec,
		csrf:     csrf,
		events:   events,
		logger:   log,
		ttl:      sessionTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock for deterministic tests.
func (s *SessionService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// CreateSession establishes a session and mints its credential bundle.
//
// When reuseSessionID is empty this is a fresh login: any existing active
// session for the user is invalidated in full first, which is where the
// single-active-session policy is enforced. A non-empty reuseSessionID means
// token rotation: the session identity, including its original creation time,
// is carried forward and no invalidation happens.
//
// The four registry writes (refresh credential, active pointer, device
// record, device-set membership) land as one atomic batch sharing the
// registry TTL.
func (s *SessionService) CreateSession(ctx context.Context, userID string, device domain.DeviceInfo, reuseSessionID string) (*domain.SessionCredentials, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	freshLogin := reuseSessionID == ""
	if freshLogin {
		active, err := s.sessions.ActiveSessionID(ctx, userID)
		switch {
		case err == nil:
			if err := s.InvalidateSession(ctx, userID, active); err != nil {
				return nil, fmt.Errorf("invalidate previous session: %w", err)
			}
		case errors.Is(err, repository.ErrNotFound):
			// first login, nothing to replace
		default:
			return nil, fmt.Errorf("lookup active session: %w", err)
		}
	}

	sessionID := reuseSessionID
	if sessionID == "" {
		generated, err := security.GenerateSessionID()
		if err != nil {
			return nil, err
		}
		sessionID = generated
	}

	now := s.now()
	createdAt := now
	if !freshLogin {
		if prior, err := s.sessions.GetSession(ctx, sessionID); err == nil {
			createdAt = prior.CreatedAt
		}
		// a vanished prior record just means the creation time restarts
	}

	session := domain.Session{
		ID:                sessionID,
		UserID:            userID,
		DeviceFingerprint: security.DeviceFingerprint(security.FingerprintInput(device)),
		CreatedAt:         createdAt,
		LastActivity:      now,
		UserAgent:         orUnknown(device.UserAgent),
		IP:                orUnknown(device.IP),
	}

	accessToken, err := s.codec.IssueAccess(userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := s.codec.IssueRefresh(userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.sessions.WriteSession(ctx, session, refreshToken, s.ttl); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	csrfToken, err := s.csrf.Issue(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("issue csrf token: %w", err)
	}

	s.publish(ctx, port.EventSessionCreated, port.SecurityEvent{
		UserID:      userID,
		SessionID:   sessionID,
		Fingerprint: session.DeviceFingerprint,
		IP:          logger.MaskIP(session.IP),
		At:          now,
	})

	return &domain.SessionCredentials{
		SessionID:    sessionID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		CSRFToken:    csrfToken,
	}, nil
}

// InvalidateSession destroys a session in full: refresh credential, device
// record, device-set membership, the active pointer (only when it still
// points here), plus the cached profile and CSRF token. Invalidating an
// already-gone session is a no-op.
func (s *SessionService) InvalidateSession(ctx context.Context, userID, sessionID string) error {
	if err := s.sessions.PurgeSession(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("purge session: %w", err)
	}

	s.publish(ctx, port.EventSessionInvalidated, port.SecurityEvent{
		UserID:    userID,
		SessionID: sessionID,
		At:        s.now(),
	})

	return nil
}

// VerifyActiveSession reports whether sessionID is the user's current active
// session. This runs on every authenticated request after signature
// verification: a fresh login elsewhere overwrites the pointer, so an older
// session's still-valid access token is rejected on its very next use.
func (s *SessionService) VerifyActiveSession(ctx context.Context, userID, sessionID string) (bool, error) {
	active, err := s.sessions.ActiveSessionID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup active session: %w", err)
	}

	return active == sessionID && sessionID != "", nil
}

// TouchSession refreshes the session's last-activity stamp. Best effort: a
// failure is logged and swallowed, it must never fail the request.
func (s *SessionService) TouchSession(ctx context.Context, sessionID string) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("touch session: load record failed", zap.Error(err))
		}
		return
	}

	session.Touch(s.now())
	if err := s.sessions.TouchSession(ctx, *session, s.ttl); err != nil {
		s.logger.Warn("touch session: write failed", zap.Error(err))
	}
}

// ListSessions enumerates the user's registered device sessions. Sessions
// whose device record has expired or vanished are skipped rather than
// erroring; the set tolerates partial staleness.
func (s *SessionService) ListSessions(ctx context.Context, userID, currentSessionID string) ([]domain.SessionSummary, error) {
	ids, err := s.sessions.SessionIDsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list device sessions: %w", err)
	}

	summaries := make([]domain.SessionSummary, 0, len(ids))
	for _, id := range ids {
		session, err := s.sessions.GetSession(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load session %s: %w", id, err)
		}

		summaries = append(summaries, domain.SessionSummary{
			SessionID:         id,
			DeviceFingerprint: session.DeviceFingerprint,
			UserAgent:         session.UserAgent,
			IP:                session.IP,
			CreatedAt:         session.CreatedAt,
			LastActivity:      session.LastActivity,
			Current:           id == currentSessionID,
		})
	}

	return summaries, nil
}

// TerminateDevice invalidates one of the user's sessions, after proving the
// session actually belongs to them.
func (s *SessionService) TerminateDevice(ctx context.Context, userID, sessionID string) error {
	owned, err := s.sessions.IsUserSession(ctx, userID, sessionID)
	if err != nil {
		return fmt.Errorf("check session ownership: %w", err)
	}
	if !owned {
		return ErrSessionNotFound
	}

	if err := s.InvalidateSession(ctx, userID, sessionID); err != nil {
		return err
	}

	s.publish(ctx, port.EventDeviceTerminated, port.SecurityEvent{
		UserID:    userID,
		SessionID: sessionID,
		At:        s.now(),
	})

	return nil
}

func (s *SessionService) publish(ctx context.Context, eventType string, event port.SecurityEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, event); err != nil {
		s.logger.Warn("publish security event failed",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "unknown"
	}
	return v
}
