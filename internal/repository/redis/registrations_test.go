package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/domain"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/repository"
)

func TestRegistrationRepository_ConsumeOnce(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRegistrationRepository(client, "")

	ctx := context.Background()
	pending := domain.PendingRegistration{
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "salt:hash",
	}

	if err := repo.Store(ctx, "verify-token", pending, 5*time.Minute); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	got, err := repo.Consume(ctx, "verify-token")
	if err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if got.Email != pending.Email || got.Name != pending.Name {
		t.Fatalf("unexpected pending registration: %+v", got)
	}

	// The token is single use.
	if _, err := repo.Consume(ctx, "verify-token"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second consume, got %v", err)
	}
}

func TestRegistrationRepository_ConsumeUnknownToken(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRegistrationRepository(client, "")

	if _, err := repo.Consume(context.Background(), "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistrationRepository_ConsumeExpired(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRegistrationRepository(client, "")

	ctx := context.Background()
	pending := domain.PendingRegistration{Name: "Ada", Email: "ada@example.com"}

	if err := repo.Store(ctx, "verify-token", pending, time.Minute); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}

	server.FastForward(2 * time.Minute)

	if _, err := repo.Consume(ctx, "verify-token"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}
