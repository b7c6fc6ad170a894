package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRotate_IssuesNewPairForSameSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	creds, err := env.sessions.CreateSession(ctx, "user-1", testDevice(), "")
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	env.clock.Advance(30 * time.Second)

	rotated, claims, err := env.rotation.Rotate(ctx, creds.RefreshToken, testDevice())
	if err != nil {
		t.Fatalf("Rotate returned error: %v", err)
	}
	if claims.UserID != "user-1" || claims.SessionID != creds.SessionID {
		t.Fatalf("rotation claims do not match session: %+v", claims)
	}
	if rotated.SessionID != creds.SessionID {
		t.Fatalf("rotation must keep the session id, got %s", rotated.SessionID)
	}
	if rotated.RefreshToken == creds.RefreshToken {
		t.Fatalf("expected a new refresh token string after rotation")
	}
	if rotated.AccessToken == creds.AccessToken {
		t.Fatalf("expected a new access token string after rotation")
	}

	active, err := env.sessions.VerifyActiveSession(ctx, "user-1", creds.SessionID)
	if err != nil || !active {
		t.Fatalf("expected session to remain active after rotation, active=%v err=%v", active, err)
	}
}

func TestRotate_ReplayDestroysSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	creds, err := env.sessions.CreateSession(ctx, "user-1", testDevice(), "")
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	env.clock.Advance(30 * time.Second)

	if _, _, err := env.rotation.Rotate(ctx, creds.RefreshToken, testDevice()); err != nil {
		t.Fatalf("first rotation returned error: %v", err)
	}

	// Presenting the already-redeemed string again is a replay.
	_, _, err = env.rotation.Rotate(ctx, creds.RefreshToken, testDevice())
	if !errors.Is(err, ErrRefreshTokenReused) {
		t.Fatalf("expected ErrRefreshTokenReused, got %v", err)
	}

	active, err := env.sessions.VerifyActiveSession(ctx, "user-1", creds.SessionID)
	if err != nil {
		t.Fatalf("VerifyActiveSession returned error: %v", err)
	}
	if active {
		t.Fatalf("expected the whole session destroyed after replay detection")
	}
}

func TestRotate_ConcurrentRedemptionsWinAtMostOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	creds, err := env.sessions.CreateSession(ctx, "user-1", testDevice(), "")
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	env.clock.Advance(30 * time.Second)

	const workers = 16
	results := make([]error, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, _, results[i] = env.rotation.Rotate(ctx, creds.RefreshToken, testDevice())
		}(i)
	}
	wg.Wait()

	var succeeded, reused, invalid int
	for i, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrRefreshTokenReused):
			reused++
		case errors.Is(err, ErrRefreshTokenInvalid):
			// the winner's session was torn down underneath it
			invalid++
		default:
			t.Fatalf("worker %d: unexpected error %v", i, err)
		}
	}

	// Exactly one redemption claims the single-use marker; every other
	// worker must see the marker and report reuse.
	if succeeded > 1 {
		t.Fatalf("expected at most one successful rotation, got %d", succeeded)
	}
	if reused < workers-1 {
		t.Fatalf("expected at least %d reuse detections, got %d (succeeded=%d invalid=%d)",
			workers-1, reused, succeeded, invalid)
	}

	// The redeemed string is dead regardless of which interleaving won.
	if _, _, err := env.rotation.Rotate(ctx, creds.RefreshToken, testDevice()); err == nil {
		t.Fatalf("expected the original token to stay unusable")
	}

	if succeeded == 0 {
		active, err := env.sessions.VerifyActiveSession(ctx, "user-1", creds.SessionID)
		if err != nil {
			t.Fatalf("VerifyActiveSession returned error: %v", err)
		}
		if active {
			t.Fatalf("expected the session destroyed when no rotation won")
		}
	}
}

func TestRotate_MissingToken(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.rotation.Rotate(context.Background(), "", testDevice())
	if !errors.Is(err, ErrRefreshTokenMissing) {
		t.Fatalf("expected ErrRefreshTokenMissing, got %v", err)
	}
}

func TestRotate_GarbageToken(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.rotation.Rotate(context.Background(), "not-a-jwt", testDevice())
	if !errors.Is(err, ErrRefreshTokenInvalid) {
		t.Fatalf("expected ErrRefreshTokenInvalid, got %v", err)
	}
}

func TestRotate_StaleTokenAfterFreshLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	old, err := env.sessions.CreateSession(ctx, "user-1", testDevice(), "")
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	env.clock.Advance(time.Minute)

	// A fresh login elsewhere displaces the old session entirely.
	if _, err := env.sessions.CreateSession(ctx, "user-1", testDevice(), ""); err != nil {
		t.Fatalf("second CreateSession returned error: %v", err)
	}

	_, _, err = env.rotation.Rotate(ctx, old.RefreshToken, testDevice())
	if !errors.Is(err, ErrRefreshTokenInvalid) {
		t.Fatalf("expected ErrRefreshTokenInvalid for the displaced session's token, got %v", err)
	}
}

func TestRotate_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	creds, err := env.sessions.CreateSession(ctx, "user-1", testDevice(), "")
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	env.clock.Advance(8 * 24 * time.Hour)

	_, _, err = env.rotation.Rotate(ctx, creds.RefreshToken, testDevice())
	if !errors.Is(err, ErrRefreshTokenInvalid) {
		t.Fatalf("expected ErrRefreshTokenInvalid for an expired token, got %v", err)
	}
}
