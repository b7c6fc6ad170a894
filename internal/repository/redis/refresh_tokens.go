package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/port"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/repository"
)

// RefreshTokenRepository reads the per-session refresh credential and manages
// the single-use redemption markers behind reuse detection.
type RefreshTokenRepository struct {
	client *red.Client
	keys   keySpace
	now    func() time.Time
}

// NewRefreshTokenRepository wires a Redis client into a refresh token store.
func NewRefreshTokenRepository(client *red.Client, keyPrefix string) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		client: client,
		keys:   newKeySpace(strings.TrimSpace(keyPrefix)),
		now:    time.Now,
	}
}

// Get returns the currently-valid refresh token string for the session.
func (r *RefreshTokenRepository) Get(ctx context.Context, userID, sessionID string) (string, error) {
	userID = strings.TrimSpace(userID)
	sessionID = strings.TrimSpace(sessionID)
	if userID == "" || sessionID == "" {
		return "", fmt.Errorf("user id and session id are required")
	}

	value, err := r.client.Get(ctx, r.keys.refreshToken(userID, sessionID)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis get refresh token: %w", err)
	}

	return value, nil
}

// MarkUsed attempts a set-if-absent write of the used marker. The stored
// value is the redemption timestamp, useful when auditing a replay. A false
// return means the marker already existed: the token was redeemed before.
// Markers are never deleted early; they expire with the token's own validity
// window.
func (r *RefreshTokenRepository) MarkUsed(ctx context.Context, tokenHash string, ttl time.Duration) (bool, error) {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return false, fmt.Errorf("token hash is required")
	}
	if ttl <= 0 {
		return false, fmt.Errorf("ttl must be positive")
	}

	redeemedAt := strconv.FormatInt(r.now().UnixMilli(), 10)
	ok, err := r.client.SetNX(ctx, r.keys.usedRefresh(tokenHash), redeemedAt, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis mark refresh token used: %w", err)
	}

	return ok, nil
}

var _ port.RefreshTokenStore = (*RefreshTokenRepository)(nil)
