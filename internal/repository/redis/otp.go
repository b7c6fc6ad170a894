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

// OTPRepository stores the short-lived login passcodes delivered out of band.
type OTPRepository struct {
	client *red.Client
	keys   keySpace
}

// NewOTPRepository wires a Redis client into an OTP store.
func NewOTPRepository(client *red.Client, keyPrefix string) *OTPRepository {
	return &OTPRepository{client: client, keys: newKeySpace(strings.TrimSpace(keyPrefix))}
}

// Store persists the passcode for the email with the supplied TTL, replacing
// any previous one.
func (r *OTPRepository) Store(ctx context.Context, email, code string, ttl time.Duration) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("code is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	if err := r.client.Set(ctx, r.keys.otp(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("redis set otp: %w", err)
	}

	return nil
}

// Get returns the stored passcode, or repository.ErrNotFound once expired.
func (r *OTPRepository) Get(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", fmt.Errorf("email is required")
	}

	value, err := r.client.Get(ctx, r.keys.otp(email)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis get otp: %w", err)
	}

	return value, nil
}

// Delete consumes the passcode so it cannot be replayed.
func (r *OTPRepository) Delete(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}

	if err := r.client.Del(ctx, r.keys.otp(email)).Err(); err != nil {
		return fmt.Errorf("redis delete otp: %w", err)
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ port.OTPStore = (*OTPRepository)(nil)
