package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/domain"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/config"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/transport/http/middleware"
)

// CookieWriter mints and clears the credential cookies. Access and refresh
// tokens are HttpOnly; the CSRF token must stay readable by scripts so the
// client can echo it back in the X-CSRF-Token header.
type CookieWriter struct {
	cfg        config.CookieSettings
	accessTTL  time.Duration
	refreshTTL time.Duration
	csrfTTL    time.Duration
}

// NewCookieWriter builds a cookie writer from the configured lifetimes.
func NewCookieWriter(cfg config.CookieSettings, accessTTL, refreshTTL, csrfTTL time.Duration) *CookieWriter {
	return &CookieWriter{
		cfg:        cfg,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		csrfTTL:    csrfTTL,
	}
}

// SetSessionCookies writes all three credential cookies for the session.
func (w *CookieWriter) SetSessionCookies(c *gin.Context, creds *domain.SessionCredentials) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middleware.AccessTokenCookie, creds.AccessToken, int(w.accessTTL.Seconds()), "/", w.cfg.Domain, w.cfg.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, creds.RefreshToken, int(w.refreshTTL.Seconds()), "/", w.cfg.Domain, w.cfg.Secure, true)
	c.SetCookie(middleware.CSRFTokenCookie, creds.CSRFToken, int(w.csrfTTL.Seconds()), "/", w.cfg.Domain, w.cfg.Secure, false)
}

// SetCSRFCookie refreshes only the anti-forgery cookie.
func (w *CookieWriter) SetCSRFCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middleware.CSRFTokenCookie, token, int(w.csrfTTL.Seconds()), "/", w.cfg.Domain, w.cfg.Secure, false)
}

// ClearSessionCookies expires every credential cookie.
func (w *CookieWriter) ClearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", w.cfg.Domain, w.cfg.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", w.cfg.Domain, w.cfg.Secure, true)
	c.SetCookie(middleware.CSRFTokenCookie, "", -1, "/", w.cfg.Domain, w.cfg.Secure, false)
}
