package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/domain"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/repository"
)

func TestUserCacheRepository_RoundTrip(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewUserCacheRepository(client, "")

	ctx := context.Background()
	user := domain.User{
		ID:           "user-1",
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "salt:hash",
		Role:         domain.RoleUser,
	}

	if err := repo.Set(ctx, user, time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, err := repo.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.ID != user.ID || got.Email != user.Email {
		t.Fatalf("unexpected cached user: %+v", got)
	}
	if got.PasswordHash != "" {
		t.Fatalf("password hash must not survive the cache projection")
	}
}

func TestUserCacheRepository_GetMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewUserCacheRepository(client, "")

	if _, err := repo.Get(context.Background(), "absent"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserCacheRepository_MalformedEntryReadsAsMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewUserCacheRepository(client, "")

	ctx := context.Background()
	if err := client.Set(ctx, "user:bad", "{broken", time.Hour).Err(); err != nil {
		t.Fatalf("failed to seed malformed entry: %v", err)
	}

	if _, err := repo.Get(ctx, "bad"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed entry, got %v", err)
	}
}

func TestUserCacheRepository_Delete(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewUserCacheRepository(client, "")

	ctx := context.Background()
	user := domain.User{ID: "user-1", Name: "Ada", Email: "ada@example.com"}

	if err := repo.Set(ctx, user, time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := repo.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := repo.Get(ctx, "user-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
