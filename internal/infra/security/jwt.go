package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired indicates a correctly signed token past its expiry.
	// Callers must branch on this distinctly: an expired access token triggers
	// the client refresh flow, an invalid one is a hard auth failure.
	ErrTokenExpired = errors.New("security: token expired")
	// ErrTokenInvalid indicates a token that failed signature or structural
	// verification.
	ErrTokenInvalid = errors.New("security: token invalid")
)

// SessionClaims binds a token to its subject and session.
type SessionClaims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenCodecOptions configures the codec. Access and refresh secrets must be
// independent so that compromise of one class cannot forge the other.
type TokenCodecOptions struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenCodec signs and verifies the two bearer token classes.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewTokenCodec validates the options and constructs a codec.
func NewTokenCodec(opts TokenCodecOptions) (*TokenCodec, error) {
	access := strings.TrimSpace(opts.AccessSecret)
	refresh := strings.TrimSpace(opts.RefreshSecret)
	if access == "" || refresh == "" {
		return nil, fmt.Errorf("token codec: both secrets are required")
	}
	if access == refresh {
		return nil, fmt.Errorf("token codec: access and refresh secrets must differ")
	}

	accessTTL := opts.AccessTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := opts.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}

	return &TokenCodec{
		accessSecret:  []byte(access),
		refreshSecret: []byte(refresh),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        strings.TrimSpace(opts.Issuer),
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the codec clock for deterministic tests.
func (c *TokenCodec) WithClock(clock func() time.Time) {
	if clock != nil {
		c.now = clock
	}
}

// AccessTTL returns the configured access token validity window.
func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh token validity window.
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess signs a short-lived access token bound to the session.
func (c *TokenCodec) IssueAccess(userID, sessionID string) (string, error) {
	return c.issue(userID, sessionID, c.accessSecret, c.accessTTL)
}

// IssueRefresh signs a long-lived refresh token bound to the session using
// the independent refresh secret.
func (c *TokenCodec) IssueRefresh(userID, sessionID string) (string, error) {
	return c.issue(userID, sessionID, c.refreshSecret, c.refreshTTL)
}

func (c *TokenCodec) issue(userID, sessionID string, secret []byte, ttl time.Duration) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("token codec: user id is required")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", fmt.Errorf("token codec: session id is required")
	}

	now := c.now()
	claims := &SessionClaims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti makes every issued token byte-distinct even within one
			// clock second, so a rotation can never mint a string whose
			// single-use marker is already set.
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("token codec: sign token: %w", err)
	}

	return signed, nil
}

// VerifyAccess verifies an access token and returns its claims.
func (c *TokenCodec) VerifyAccess(token string) (*SessionClaims, error) {
	return c.verify(token, c.accessSecret)
}

// VerifyRefresh verifies a refresh token and returns its claims.
func (c *TokenCodec) VerifyRefresh(token string) (*SessionClaims, error) {
	return c.verify(token, c.refreshSecret)
}

func (c *TokenCodec) verify(token string, secret []byte) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.UserID) == "" || strings.TrimSpace(claims.SessionID) == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
