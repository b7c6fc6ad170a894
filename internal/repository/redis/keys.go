package redis

import "fmt"

// Key scheme shared across the session registry repositories. Session
// invalidation deletes across several of these namespaces in one batch, so
// the builders live together instead of inside individual repositories.
type keySpace struct {
	prefix string
}

func newKeySpace(prefix string) keySpace {
	return keySpace{prefix: prefix}
}

func (k keySpace) apply(key string) string {
	if k.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", k.prefix, key)
}

// refreshToken holds the currently-valid refresh credential per (user, session).
func (k keySpace) refreshToken(userID, sessionID string) string {
	return k.apply(fmt.Sprintf("refresh_token:%s:%s", userID, sessionID))
}

// activeSession is the single active-session pointer per user.
func (k keySpace) activeSession(userID string) string {
	return k.apply(fmt.Sprintf("active_session:%s", userID))
}

// sessionDevice stores the device record for a session.
func (k keySpace) sessionDevice(sessionID string) string {
	return k.apply(fmt.Sprintf("session_device:%s", sessionID))
}

// deviceSessions is the set of sessions registered for a user.
func (k keySpace) deviceSessions(userID string) string {
	return k.apply(fmt.Sprintf("device_sessions:%s", userID))
}

// usedRefresh marks a redeemed refresh token by its one-way hash.
func (k keySpace) usedRefresh(tokenHash string) string {
	return k.apply(fmt.Sprintf("used_refresh:%s", tokenHash))
}

// csrf stores the server-side CSRF token per user.
func (k keySpace) csrf(userID string) string {
	return k.apply(fmt.Sprintf("csrf:%s", userID))
}

// userCache stores the cached user projection.
func (k keySpace) userCache(userID string) string {
	return k.apply(fmt.Sprintf("user:%s", userID))
}

// rateLimit accumulates attempt timestamps for a throttled identifier.
func (k keySpace) rateLimit(identifier string) string {
	return k.apply(fmt.Sprintf("rate_limit:%s", identifier))
}

// otp stores the pending login passcode per email.
func (k keySpace) otp(email string) string {
	return k.apply(fmt.Sprintf("otp:%s", email))
}

// verify stores a pending registration keyed by its emailed token.
func (k keySpace) verify(token string) string {
	return k.apply(fmt.Sprintf("verify:%s", token))
}
