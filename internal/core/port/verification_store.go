package port

import (
	"context"
	"time"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/domain"
)

// OTPStore persists short-lived one-time passcodes for the login second factor.
type OTPStore interface {
	Store(ctx context.Context, email, code string, ttl time.Duration) error
	// Get returns repository.ErrNotFound when the code expired or was consumed.
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

// RegistrationStore holds pending registrations until the emailed
// verification token is redeemed.
type RegistrationStore interface {
	Store(ctx context.Context, token string, pending domain.PendingRegistration, ttl time.Duration) error
	// Consume atomically reads and deletes the pending registration so a
	// verification link cannot be redeemed twice.
	Consume(ctx context.Context, token string) (*domain.PendingRegistration, error)
}
