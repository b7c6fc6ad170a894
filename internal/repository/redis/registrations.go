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

// RegistrationRepository holds registrations awaiting email verification.
type RegistrationRepository struct {
	client *red.Client
	keys   keySpace
}

// NewRegistrationRepository wires a Redis client into a pending registration store.
func NewRegistrationRepository(client *red.Client, keyPrefix string) *RegistrationRepository {
	return &RegistrationRepository{client: client, keys: newKeySpace(strings.TrimSpace(keyPrefix))}
}

// Store persists the pending registration under its verification token.
func (r *RegistrationRepository) Store(ctx context.Context, token string, pending domain.PendingRegistration, ttl time.Duration) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("verification token is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("encode pending registration: %w", err)
	}

	if err := r.client.Set(ctx, r.keys.verify(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set pending registration: %w", err)
	}

	return nil
}

// Consume atomically reads and deletes the pending registration so a
// verification link can only be redeemed once, even by concurrent requests.
func (r *RegistrationRepository) Consume(ctx context.Context, token string) (*domain.PendingRegistration, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("verification token is required")
	}

	data, err := r.client.GetDel(ctx, r.keys.verify(token)).Bytes()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis consume pending registration: %w", err)
	}

	var pending domain.PendingRegistration
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, repository.ErrNotFound
	}

	return &pending, nil
}

var _ port.RegistrationStore = (*RegistrationRepository)(nil)
