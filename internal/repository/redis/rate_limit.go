package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/port"
)

// RateLimitRepository keeps sliding-window attempt logs in sorted sets, one
// set per throttled identifier, scored and membered by the attempt's
// nanosecond timestamp. The set carries its own TTL so abandoned identifiers
// do not accumulate.
type RateLimitRepository struct {
	client *red.Client
	keys   keySpace
	ttl    time.Duration
}

// NewRateLimitRepository wires a Redis client into a rate limit store. The
// TTL bounds how long an idle identifier's attempt log survives and should
// exceed the largest window evaluated against it.
func NewRateLimitRepository(client *red.Client, keyPrefix string, ttl time.Duration) *RateLimitRepository {
	return &RateLimitRepository{
		client: client,
		keys:   newKeySpace(strings.TrimSpace(keyPrefix)),
		ttl:    ttl,
	}
}

// RecordAttempt appends an attempt at the given instant and refreshes the
// log's expiry.
func (r *RateLimitRepository) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return fmt.Errorf("identifier is required")
	}

	key := r.keys.rateLimit(identifier)
	ns := at.UnixNano()

	if err := r.client.ZAdd(ctx, key, red.Z{Score: float64(ns), Member: ns}).Err(); err != nil {
		return fmt.Errorf("redis record attempt: %w", err)
	}

	if r.ttl > 0 {
		if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
			return fmt.Errorf("redis expire attempt log: %w", err)
		}
	}

	return nil
}

// CountAttempts reports how many attempts fall inside the window ending at
// the reference instant.
func (r *RateLimitRepository) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, fmt.Errorf("window must be positive")
	}

	lo, hi := windowBounds(window, reference)
	count, err := r.client.ZCount(ctx, r.keys.rateLimit(identifier), lo, hi).Result()
	if err != nil {
		return 0, fmt.Errorf("redis count attempts: %w", err)
	}

	return int(count), nil
}

// TrimWindow drops attempts that have slid out of the window ending at the
// reference instant.
func (r *RateLimitRepository) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return fmt.Errorf("window must be positive")
	}

	lo, _ := windowBounds(window, reference)
	if err := r.client.ZRemRangeByScore(ctx, r.keys.rateLimit(identifier), "-inf", lo).Err(); err != nil {
		return fmt.Errorf("redis trim attempt log: %w", err)
	}

	return nil
}

// OldestAttempt returns the earliest attempt still inside the window, which
// anchors the window's reset time.
func (r *RateLimitRepository) OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if window <= 0 {
		return time.Time{}, false, fmt.Errorf("window must be positive")
	}

	lo, hi := windowBounds(window, reference)
	members, err := r.client.ZRangeByScore(ctx, r.keys.rateLimit(identifier), &red.ZRangeBy{
		Min:   lo,
		Max:   hi,
		Count: 1,
	}).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis oldest attempt: %w", err)
	}
	if len(members) == 0 {
		return time.Time{}, false, nil
	}

	ns, err := strconv.ParseInt(members[0], 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse attempt timestamp: %w", err)
	}

	return time.Unix(0, ns), true, nil
}

func windowBounds(window time.Duration, reference time.Time) (string, string) {
	lo := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)
	hi := strconv.FormatInt(reference.UnixNano(), 10)
	return lo, hi
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
