package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestCSRFVerify_SafeMethodsAlwaysPass(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace} {
		if err := env.csrf.Verify(ctx, method, "", "", false); err != nil {
			t.Fatalf("expected %s to bypass csrf checks, got %v", method, err)
		}
	}
}

func TestCSRFVerify_UnauthenticatedCaller(t *testing.T) {
	env := newTestEnv(t)

	err := env.csrf.Verify(context.Background(), http.MethodPost, "", "some-token", true)
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestCSRFVerify_MissingTokenStates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.csrf.Verify(ctx, http.MethodPost, "user-1", "", false)
	if !errors.Is(err, ErrBothTokensMissing) {
		t.Fatalf("expected ErrBothTokensMissing without any credentials, got %v", err)
	}

	err = env.csrf.Verify(ctx, http.MethodPost, "user-1", "", true)
	if !errors.Is(err, ErrCSRFMissing) {
		t.Fatalf("expected ErrCSRFMissing with a session but no header, got %v", err)
	}
}

func TestCSRFVerify_NoStoredToken(t *testing.T) {
	env := newTestEnv(t)

	err := env.csrf.Verify(context.Background(), http.MethodPost, "user-1", "presented-token", true)
	if !errors.Is(err, ErrCSRFExpired) {
		t.Fatalf("expected ErrCSRFExpired when nothing is stored, got %v", err)
	}
}

func TestCSRFVerify_MismatchAndMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	token, err := env.csrf.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	err = env.csrf.Verify(ctx, http.MethodDelete, "user-1", "wrong-token", true)
	if !errors.Is(err, ErrCSRFInvalid) {
		t.Fatalf("expected ErrCSRFInvalid for a mismatch, got %v", err)
	}

	if err := env.csrf.Verify(ctx, http.MethodDelete, "user-1", token, true); err != nil {
		t.Fatalf("expected matching token to verify, got %v", err)
	}
}

func TestCSRFRefresh_InvalidatesOldToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	old, err := env.csrf.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	fresh, err := env.csrf.Refresh(ctx, "user-1")
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if fresh == old {
		t.Fatalf("expected refresh to mint a distinct token")
	}

	err = env.csrf.Verify(ctx, http.MethodPost, "user-1", old, true)
	if !errors.Is(err, ErrCSRFInvalid) {
		t.Fatalf("expected the prior token to stop verifying, got %v", err)
	}
	if err := env.csrf.Verify(ctx, http.MethodPost, "user-1", fresh, true); err != nil {
		t.Fatalf("expected the replacement token to verify, got %v", err)
	}
}

func TestCSRFRevoke_RemovesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	token, err := env.csrf.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if err := env.csrf.Revoke(ctx, "user-1"); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	err = env.csrf.Verify(ctx, http.MethodPost, "user-1", token, true)
	if !errors.Is(err, ErrCSRFExpired) {
		t.Fatalf("expected ErrCSRFExpired after revocation, got %v", err)
	}
}
