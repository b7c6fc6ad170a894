package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type memoryRateStore struct {
	attempts map[string][]time.Time
	failing  bool
}

func newMemoryRateStore() *memoryRateStore {
	return &memoryRateStore{attempts: make(map[string][]time.Time)}
}

func (s *memoryRateStore) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	if s.failing {
		return errors.New("store unavailable")
	}
	cutoff := reference.Add(-window)
	kept := s.attempts[identifier][:0]
	for _, at := range s.attempts[identifier] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	s.attempts[identifier] = kept
	return nil
}

func (s *memoryRateStore) CountAttempts(_ context.Context, identifier string, _ time.Duration, _ time.Time) (int, error) {
	if s.failing {
		return 0, errors.New("store unavailable")
	}
	return len(s.attempts[identifier]), nil
}

func (s *memoryRateStore) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	if s.failing {
		return errors.New("store unavailable")
	}
	s.attempts[identifier] = append(s.attempts[identifier], at)
	return nil
}

func (s *memoryRateStore) OldestAttempt(_ context.Context, identifier string, _ time.Duration, _ time.Time) (time.Time, bool, error) {
	if s.failing {
		return time.Time{}, false, errors.New("store unavailable")
	}
	attempts := s.attempts[identifier]
	if len(attempts) == 0 {
		return time.Time{}, false, nil
	}
	return attempts[0], true, nil
}

func rateLimitedRouter(limiter *RateLimiter, rule RateLimitRule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/login", limiter.RateLimit(rule), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func performRequest(router *gin.Engine) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.RemoteAddr = "192.0.2.10:52000"
	router.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	store := newMemoryRateStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(store, nil).WithClock(func() time.Time { return now })

	router := rateLimitedRouter(limiter, RateLimitRule{
		Name:       "login_ip",
		Limit:      3,
		Window:     time.Minute,
		Identifier: ClientIPIdentifier(),
	})

	rec := performRequest(router)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "3" {
		t.Fatalf("expected limit header 3, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Fatalf("expected remaining header 2, got %q", got)
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatalf("expected a reset header")
	}
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	store := newMemoryRateStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(store, nil).WithClock(func() time.Time { return now })

	router := rateLimitedRouter(limiter, RateLimitRule{
		Name:       "login_ip",
		Limit:      2,
		Window:     time.Minute,
		Identifier: ClientIPIdentifier(),
	})

	for i := 0; i < 2; i++ {
		if rec := performRequest(router); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec := performRequest(router)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected remaining header 0, got %q", got)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected a Retry-After header")
	}

	var body struct {
		Message    string `json:"message"`
		Code       string `json:"code"`
		RetryAfter int    `json:"retry_after"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED, got %q", body.Code)
	}
}

func TestRateLimit_WindowSlides(t *testing.T) {
	store := newMemoryRateStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(store, nil).WithClock(func() time.Time { return now })

	router := rateLimitedRouter(limiter, RateLimitRule{
		Name:       "login_ip",
		Limit:      1,
		Window:     time.Minute,
		Identifier: ClientIPIdentifier(),
	})

	if rec := performRequest(router); rec.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", rec.Code)
	}
	if rec := performRequest(router); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request blocked, got %d", rec.Code)
	}

	now = now.Add(61 * time.Second)

	if rec := performRequest(router); rec.Code != http.StatusOK {
		t.Fatalf("expected request after window to be allowed, got %d", rec.Code)
	}
}

func TestRateLimit_StoreFailureFailsOpen(t *testing.T) {
	store := newMemoryRateStore()
	store.failing = true
	limiter := NewRateLimiter(store, nil)

	router := rateLimitedRouter(limiter, RateLimitRule{
		Name:       "login_ip",
		Limit:      1,
		Window:     time.Minute,
		Identifier: ClientIPIdentifier(),
	})

	if rec := performRequest(router); rec.Code != http.StatusOK {
		t.Fatalf("expected request to pass when the store is down, got %d", rec.Code)
	}
}
