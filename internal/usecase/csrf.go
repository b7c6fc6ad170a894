package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/port"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/security"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/repository"
)

const (
	defaultCSRFTTL = time.Hour
	csrfTokenBytes = 32
)

// CSRFService implements the double-submit anti-forgery pattern: a random
// token stored server-side per user and mirrored into a script-readable
// cookie, which the client must echo in a request header on mutating calls.
// The token proves the caller can read same-origin cookies; it is not a
// secrecy boundary.
type CSRFService struct {
	store  port.CSRFStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewCSRFService constructs the CSRF binder.
func NewCSRFService(store port.CSRFStore, ttl time.Duration, log *zap.Logger) *CSRFService {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCSRFTTL
	}
	return &CSRFService{store: store, ttl: ttl, logger: log}
}

// TTL returns the configured token lifetime, used when setting the cookie.
func (s *CSRFService) TTL() time.Duration { return s.ttl }

// Issue generates a fresh 256-bit token for the user, replacing any prior
// one. Exactly one live CSRF token exists per user.
func (s *CSRFService) Issue(ctx context.Context, userID string) (string, error) {
	token, err := security.GenerateSecureToken(csrfTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}

	if err := s.store.Set(ctx, userID, token, s.ttl); err != nil {
		return "", fmt.Errorf("store csrf token: %w", err)
	}

	return token, nil
}

// Verify runs the anti-forgery state machine for a request. Safe methods
// always pass. For unsafe methods the distinct failure modes let the client
// choose its recovery: re-authenticate, or just refresh the CSRF token.
// Comparison against the stored token is constant time.
func (s *CSRFService) Verify(ctx context.Context, method, userID, presented string, hasSessionCookie bool) error {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return nil
	}

	if userID == "" {
		return ErrNotAuthenticated
	}

	if presented == "" {
		if !hasSessionCookie {
			return ErrBothTokensMissing
		}
		return ErrCSRFMissing
	}

	stored, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCSRFExpired
		}
		return fmt.Errorf("load csrf token: %w", err)
	}

	if !security.ConstantTimeEquals(stored, presented) {
		return ErrCSRFInvalid
	}

	return nil
}

// Revoke removes the user's CSRF token, typically on logout.
func (s *CSRFService) Revoke(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("revoke csrf token: %w", err)
	}
	return nil
}

// Refresh revokes the current token and issues a replacement. Used by the
// client-driven renewal endpoint so an expired CSRF token never forces a
// full re-login.
func (s *CSRFService) Refresh(ctx context.Context, userID string) (string, error) {
	if err := s.Revoke(ctx, userID); err != nil {
		return "", err
	}
	return s.Issue(ctx, userID)
}
