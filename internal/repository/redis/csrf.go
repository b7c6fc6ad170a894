package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/port"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/repository"
)

// CSRFRepository keeps the server-side half of the double-submit token.
// Exactly one live token exists per user; setting a new one replaces the old.
type CSRFRepository struct {
	client *red.Client
	keys   keySpace
}

// NewCSRFRepository wires a Redis client into a CSRF token store.
func NewCSRFRepository(client *red.Client, keyPrefix string) *CSRFRepository {
	return &CSRFRepository{client: client, keys: newKeySpace(strings.TrimSpace(keyPrefix))}
}

// Set stores the user's CSRF token, replacing any prior one.
func (r *CSRFRepository) Set(ctx context.Context, userID, token string, ttl time.Duration) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if token == "" {
		return fmt.Errorf("token is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	if err := r.client.Set(ctx, r.keys.csrf(userID), token, ttl).Err(); err != nil {
		return fmt.Errorf("redis set csrf token: %w", err)
	}

	return nil
}

// Get returns the stored CSRF token for the user.
func (r *CSRFRepository) Get(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	value, err := r.client.Get(ctx, r.keys.csrf(userID)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis get csrf token: %w", err)
	}

	return value, nil
}

// Delete removes the user's CSRF token. Deleting an absent token is a no-op.
func (r *CSRFRepository) Delete(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	if err := r.client.Del(ctx, r.keys.csrf(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete csrf token: %w", err)
	}

	return nil
}

var _ port.CSRFStore = (*CSRFRepository)(nil)
