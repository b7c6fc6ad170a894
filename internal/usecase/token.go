package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/domain"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/port"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/logger"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/security"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/repository"
)

// RotationService exchanges a refresh token for a new credential pair bound
// to the same session, running reuse detection before anything is minted.
type RotationService struct {
	codec    *security.TokenCodec
	refresh  port.RefreshTokenStore
	sessions *SessionService
	logger   *zap.Logger
}

// NewRotationService constructs the refresh rotation service.
func NewRotationService(
	codec *security.TokenCodec,
	refresh port.RefreshTokenStore,
	sessions *SessionService,
	log *zap.Logger,
) *RotationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RotationService{
		codec:    codec,
		refresh:  refresh,
		sessions: sessions,
		logger:   log,
	}
}

// Rotate validates the presented refresh token and, when it is the live
// credential for the user's active session, issues a fresh token pair bound
// to the same session id.
//
// The presented token string is marked used via a conditional set-if-absent
// write before any other check. A marker that already exists means this exact
// string was redeemed before: that is treated as a stolen-and-replayed
// credential, the whole session is destroyed, and ErrRefreshTokenReused is
// returned. A legitimately duplicated client retry pays the same price; a
// forced re-login is the accepted cost of never missing a replay.
func (s *RotationService) Rotate(ctx context.Context, refreshToken string, device domain.DeviceInfo) (*domain.SessionCredentials, *security.SessionClaims, error) {
	if refreshToken == "" {
		return nil, nil, ErrRefreshTokenMissing
	}

	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, nil, ErrRefreshTokenInvalid
	}

	firstUse, err := s.refresh.MarkUsed(ctx, security.HashToken(refreshToken), s.codec.RefreshTTL())
	if err != nil {
		return nil, nil, fmt.Errorf("mark refresh token used: %w", err)
	}
	if !firstUse {
		s.logger.Error("refresh token reuse detected",
			zap.String("user_id", claims.UserID),
			zap.String("session_id", claims.SessionID),
			zap.String("ip", logger.MaskIP(device.IP)),
		)
		if err := s.sessions.InvalidateSession(ctx, claims.UserID, claims.SessionID); err != nil {
			return nil, nil, fmt.Errorf("invalidate session after reuse: %w", err)
		}
		s.sessions.publish(ctx, port.EventReuseDetected, port.SecurityEvent{
			UserID:    claims.UserID,
			SessionID: claims.SessionID,
			IP:        logger.MaskIP(device.IP),
			Reason:    "refresh_token_replayed",
			At:        s.sessions.now(),
		})
		return nil, nil, ErrRefreshTokenReused
	}

	stored, err := s.refresh.Get(ctx, claims.UserID, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrRefreshTokenInvalid
		}
		return nil, nil, fmt.Errorf("load stored refresh token: %w", err)
	}
	if !security.ConstantTimeEquals(stored, refreshToken) {
		// the session rotated through another path; this token is stale
		return nil, nil, ErrRefreshTokenInvalid
	}

	active, err := s.sessions.VerifyActiveSession(ctx, claims.UserID, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if !active {
		return nil, nil, ErrRefreshTokenInvalid
	}

	creds, err := s.sessions.CreateSession(ctx, claims.UserID, device, claims.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("reissue session credentials: %w", err)
	}

	return creds, claims, nil
}
