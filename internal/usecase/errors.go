package usecase

import "errors"

// Credential errors: recoverable by a client-driven refresh or re-login,
// never retried server-side.
var (
	// ErrAccessTokenMissing signals no access token accompanied the request.
	ErrAccessTokenMissing = errors.New("access token missing")
	// ErrAccessTokenExpired signals a correctly signed but expired access token.
	ErrAccessTokenExpired = errors.New("access token expired")
	// ErrAccessTokenInvalid signals an access token that failed verification.
	ErrAccessTokenInvalid = errors.New("invalid access token")
	// ErrRefreshTokenMissing signals no refresh token accompanied the request.
	ErrRefreshTokenMissing = errors.New("refresh token missing")
	// ErrRefreshTokenInvalid signals a refresh token that failed verification
	// or no longer matches the stored credential.
	ErrRefreshTokenInvalid = errors.New("invalid refresh token")
)

// Session-integrity errors: always fatal to the current session, force full
// re-authentication.
var (
	// ErrSessionInvalidated signals the session is no longer the user's active
	// one, typically because of a login elsewhere.
	ErrSessionInvalidated = errors.New("session invalidated")
	// ErrRefreshTokenReused signals a refresh token presented more than once.
	// The session has already been destroyed by the time this is returned.
	ErrRefreshTokenReused = errors.New("refresh token reuse detected")
	// ErrSessionNotFound signals a session that does not belong to the user or
	// no longer exists.
	ErrSessionNotFound = errors.New("session not found")
)

// Anti-forgery errors: recoverable via a CSRF-only refresh without re-login.
var (
	// ErrNotAuthenticated signals a mutating request with no user context.
	ErrNotAuthenticated = errors.New("user not authenticated")
	// ErrBothTokensMissing signals a mutating request carrying neither the
	// CSRF header nor a session cookie.
	ErrBothTokensMissing = errors.New("both access and csrf tokens missing")
	// ErrCSRFMissing signals an absent CSRF header while a session cookie exists.
	ErrCSRFMissing = errors.New("csrf token missing")
	// ErrCSRFExpired signals the server-side CSRF token has expired.
	ErrCSRFExpired = errors.New("csrf token expired")
	// ErrCSRFInvalid signals a CSRF header that does not match the stored token.
	ErrCSRFInvalid = errors.New("invalid csrf token")
)

// Account flow errors.
var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists signals a registration against an already-taken email.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound signals an authenticated subject with no backing record.
	ErrUserNotFound = errors.New("user not found")
	// ErrVerificationExpired signals an expired or already-consumed
	// registration verification link.
	ErrVerificationExpired = errors.New("verification link expired")
	// ErrOTPExpired signals the login passcode has expired.
	ErrOTPExpired = errors.New("otp expired")
	// ErrInvalidOTP signals a passcode mismatch.
	ErrInvalidOTP = errors.New("invalid otp")
)
