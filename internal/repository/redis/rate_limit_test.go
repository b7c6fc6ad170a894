package redis

import (
	"context"
	"testing"
	"time"
)

func TestRateLimitRepository_CountWithinWindow(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, "", time.Hour)

	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		if err := repo.RecordAttempt(ctx, "login:1.2.3.4", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	count, err := repo.CountAttempts(ctx, "login:1.2.3.4", time.Minute, now.Add(3*time.Second))
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts, got %d", count)
	}
}

func TestRateLimitRepository_AppliesKeyPrefix(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRateLimitRepository(client, "auth", time.Hour)

	ctx := context.Background()
	now := time.Now()

	if err := repo.RecordAttempt(ctx, "login:1.2.3.4", now); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	if !server.Exists("auth:rate_limit:login:1.2.3.4") {
		t.Fatalf("expected attempt log under the configured prefix, keys: %v", server.Keys())
	}

	count, err := repo.CountAttempts(ctx, "login:1.2.3.4", time.Minute, now)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 attempt under prefix, got %d", count)
	}
}

func TestRateLimitRepository_TrimWindowDropsOldAttempts(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, "", time.Hour)

	ctx := context.Background()
	now := time.Now()

	if err := repo.RecordAttempt(ctx, "login:1.2.3.4", now.Add(-2*time.Minute)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "login:1.2.3.4", now); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	if err := repo.TrimWindow(ctx, "login:1.2.3.4", time.Minute, now); err != nil {
		t.Fatalf("TrimWindow returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "login:1.2.3.4", time.Minute, now)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 attempt after trim, got %d", count)
	}
}

func TestRateLimitRepository_OldestAttempt(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, "", time.Hour)

	ctx := context.Background()
	now := time.Now()
	first := now.Add(-30 * time.Second)

	if err := repo.RecordAttempt(ctx, "login:1.2.3.4", first); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "login:1.2.3.4", now); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	oldest, ok, err := repo.OldestAttempt(ctx, "login:1.2.3.4", time.Minute, now)
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected an attempt inside the window")
	}
	if oldest.UnixNano() != first.UnixNano() {
		t.Fatalf("expected oldest %v, got %v", first, oldest)
	}

	_, ok, err = repo.OldestAttempt(ctx, "login:absent", time.Minute, now)
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected no attempts for unknown identifier")
	}
}

func TestRateLimitRepository_Validation(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, "", time.Hour)
	ctx := context.Background()

	if err := repo.RecordAttempt(ctx, "  ", time.Now()); err == nil {
		t.Fatalf("expected error for blank identifier")
	}
	if _, err := repo.CountAttempts(ctx, "login:1.2.3.4", 0, time.Now()); err == nil {
		t.Fatalf("expected error for non-positive window")
	}
	if err := repo.TrimWindow(ctx, "login:1.2.3.4", -time.Second, time.Now()); err == nil {
		t.Fatalf("expected error for negative window")
	}
}
