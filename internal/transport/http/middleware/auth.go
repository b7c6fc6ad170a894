package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/usecase"
)

// Cookie names shared between the middleware and the handlers that set them.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
	CSRFTokenCookie    = "csrfToken"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// RequireAuth validates the access token cookie against the token codec and
// the session registry, then stores the resolved user on the Gin context.
// A token whose session pointer no longer matches is rejected even when the
// signature and expiry are still valid.
func RequireAuth(authService *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AccessTokenCookie)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Access token not found",
				Code:    "ACCESS_TOKEN_MISSING",
			})
			return
		}

		user, claims, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrAccessTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
					Message: "Access token expired",
					Code:    "ACCESS_TOKEN_EXPIRED",
				})
			case errors.Is(err, usecase.ErrAccessTokenInvalid):
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
					Message: "Invalid access token",
					Code:    "ACCESS_TOKEN_INVALID",
				})
			case errors.Is(err, usecase.ErrSessionInvalidated):
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
					Message: "Session has been invalidated",
					Code:    "SESSION_INVALIDATED",
				})
			case errors.Is(err, usecase.ErrUserNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
					Message: "Invalid access token",
					Code:    "ACCESS_TOKEN_INVALID",
				})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Authentication failed",
				})
			}
			return
		}

		c.Set(UserKey, user)
		c.Set(SessionIDKey, claims.SessionID)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.UserID = user.ID
		}

		c.Next()
	}
}
