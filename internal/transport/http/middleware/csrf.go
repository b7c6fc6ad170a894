package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/usecase"
)

// CSRFHeader carries the anti-forgery token on mutating requests.
const CSRFHeader = "X-CSRF-Token"

// RequireCSRF enforces double-submit anti-forgery on state-changing methods.
// It runs after RequireAuth so the authenticated user is already on the
// context. Safe methods pass through untouched.
func RequireCSRF(csrfService *usecase.CSRFService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := ""
		if user, ok := AuthenticatedUser(c); ok {
			userID = user.ID
		}

		presented := c.GetHeader(CSRFHeader)

		hasSessionCookie := false
		if _, err := c.Cookie(AccessTokenCookie); err == nil {
			hasSessionCookie = true
		}

		err := csrfService.Verify(c.Request.Context(), c.Request.Method, userID, presented, hasSessionCookie)
		if err == nil {
			c.Next()
			return
		}

		switch {
		case errors.Is(err, usecase.ErrBothTokensMissing):
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Session and CSRF token missing",
				Code:    "BOTH_TOKENS_MISSING",
			})
		case errors.Is(err, usecase.ErrNotAuthenticated):
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authentication required",
				Code:    "USER_NOT_AUTHENTICATED",
			})
		case errors.Is(err, usecase.ErrCSRFMissing):
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "CSRF token not found",
				Code:    "CSRF_TOKEN_MISSING",
			})
		case errors.Is(err, usecase.ErrCSRFExpired):
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "CSRF token expired",
				Code:    "CSRF_TOKEN_EXPIRED",
			})
		case errors.Is(err, usecase.ErrCSRFInvalid):
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Invalid CSRF token",
				Code:    "CSRF_TOKEN_INVALID",
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Message: "CSRF verification failed",
			})
		}
	}
}
