package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestCodec(t *testing.T, clock func() time.Time) *TokenCodec {
	t.Helper()

	codec, err := NewTokenCodec(TokenCodecOptions{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "auth-test",
	})
	if err != nil {
		t.Fatalf("NewTokenCodec returned error: %v", err)
	}
	if clock != nil {
		codec.WithClock(clock)
	}
	return codec
}

func TestNewTokenCodec_RejectsBadSecrets(t *testing.T) {
	if _, err := NewTokenCodec(TokenCodecOptions{AccessSecret: "", RefreshSecret: "x"}); err == nil {
		t.Fatalf("expected error for missing access secret")
	}
	if _, err := NewTokenCodec(TokenCodecOptions{AccessSecret: "same", RefreshSecret: "same"}); err == nil {
		t.Fatalf("expected error for identical secrets")
	}
}

func TestTokenCodec_AccessRoundTrip(t *testing.T) {
	codec := newTestCodec(t, nil)

	token, err := codec.IssueAccess("user-1", "sess-1")
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}

	claims, err := codec.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess returned error: %v", err)
	}
	if claims.UserID != "user-1" || claims.SessionID != "sess-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject to mirror user id, got %q", claims.Subject)
	}
}

func TestTokenCodec_EveryIssueIsDistinct(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, func() time.Time { return fixed })

	// Same claims, same clock instant: the jti must still separate the two,
	// or back-to-back rotations inside one second would collide with their
	// own single-use markers.
	first, err := codec.IssueRefresh("user-1", "sess-1")
	if err != nil {
		t.Fatalf("IssueRefresh returned error: %v", err)
	}
	second, err := codec.IssueRefresh("user-1", "sess-1")
	if err != nil {
		t.Fatalf("IssueRefresh returned error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct token strings for identical claims")
	}

	claims, err := codec.VerifyRefresh(second)
	if err != nil {
		t.Fatalf("VerifyRefresh returned error: %v", err)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id claim")
	}
}

func TestTokenCodec_SecretsAreIndependent(t *testing.T) {
	codec := newTestCodec(t, nil)

	access, err := codec.IssueAccess("user-1", "sess-1")
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}
	refresh, err := codec.IssueRefresh("user-1", "sess-1")
	if err != nil {
		t.Fatalf("IssueRefresh returned error: %v", err)
	}

	if _, err := codec.VerifyRefresh(access); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access token must not verify as refresh, got %v", err)
	}
	if _, err := codec.VerifyAccess(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token must not verify as access, got %v", err)
	}
}

func TestTokenCodec_ExpiredIsDistinctFromInvalid(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, func() time.Time { return current })

	token, err := codec.IssueAccess("user-1", "sess-1")
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}

	current = current.Add(16 * time.Minute)

	_, err = codec.VerifyAccess(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenCodec_WrongSecretNeverReadsAsExpired(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, func() time.Time { return current })

	other, err := NewTokenCodec(TokenCodecOptions{
		AccessSecret:  "a-completely-different-secret",
		RefreshSecret: "another-completely-different-secret",
	})
	if err != nil {
		t.Fatalf("NewTokenCodec returned error: %v", err)
	}
	other.WithClock(func() time.Time { return current })

	token, err := other.IssueAccess("user-1", "sess-1")
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}

	// Even long past expiry the signature failure must win, so a forged
	// token can never trigger the refresh flow.
	current = current.Add(48 * time.Hour)

	_, err = codec.VerifyAccess(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenCodec_TamperedTokenRejected(t *testing.T) {
	codec := newTestCodec(t, nil)

	token, err := codec.IssueAccess("user-1", "sess-1")
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected a three-part jwt, got %d parts", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := codec.VerifyAccess(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for a tampered signature, got %v", err)
	}
}

func TestTokenCodec_EmptyAndBlankInput(t *testing.T) {
	codec := newTestCodec(t, nil)

	if _, err := codec.VerifyAccess(""); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for empty token, got %v", err)
	}
	if _, err := codec.IssueAccess("", "sess-1"); err == nil {
		t.Fatalf("expected error issuing for empty user id")
	}
	if _, err := codec.IssueAccess("user-1", "  "); err == nil {
		t.Fatalf("expected error issuing for blank session id")
	}
}
