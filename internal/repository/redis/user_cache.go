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

// UserCacheRepository holds a best-effort projection of user records. It has
// its own TTL and sits outside the session consistency boundary: a stale or
// missing entry only costs a trip to the persistent store.
type UserCacheRepository struct {
	client *red.Client
	keys   keySpace
}

// NewUserCacheRepository wires a Redis client into the user projection cache.
func NewUserCacheRepository(client *red.Client, keyPrefix string) *UserCacheRepository {
	return &UserCacheRepository{client: client, keys: newKeySpace(strings.TrimSpace(keyPrefix))}
}

// Get loads the cached user projection. Malformed entries read as a miss.
func (r *UserCacheRepository) Get(ctx context.Context, userID string) (*domain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	data, err := r.client.Get(ctx, r.keys.userCache(userID)).Bytes()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get user cache: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, repository.ErrNotFound
	}

	return &user, nil
}

// Set stores the user projection with the cache TTL. The password hash is
// excluded from the projection by the domain type's JSON encoding.
func (r *UserCacheRepository) Set(ctx context.Context, user domain.User, ttl time.Duration) error {
	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user projection: %w", err)
	}

	if err := r.client.Set(ctx, r.keys.userCache(user.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set user cache: %w", err)
	}

	return nil
}

// Delete evicts the cached projection. Absent entries are a no-op.
func (r *UserCacheRepository) Delete(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	if err := r.client.Del(ctx, r.keys.userCache(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete user cache: %w", err)
	}

	return nil
}

var _ port.UserCache = (*UserCacheRepository)(nil)
