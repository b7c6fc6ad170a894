package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/domain"
)

// ErrorResponse represents a generic error payload with a machine-readable code.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, message, code string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Message: message,
		Code:    code,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary describes a minimal view of a user returned by the API.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func newUserSummary(u *domain.User) UserSummary {
	return UserSummary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// RegisterRequest defines the account registration payload.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest defines the first step of the login flow.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// VerifyOTPRequest defines the second step of the login flow.
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

// LoginResponse is returned once both login steps succeed. Tokens travel in
// cookies; the CSRF token is mirrored in the body for header-based submission.
type LoginResponse struct {
	Message   string      `json:"message"`
	User      UserSummary `json:"user"`
	CSRFToken string      `json:"csrf_token"`
}

// RefreshResponse confirms a completed rotation.
type RefreshResponse struct {
	Message   string `json:"message"`
	CSRFToken string `json:"csrf_token"`
}

// CSRFResponse carries a newly minted anti-forgery token.
type CSRFResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// SessionView describes one tracked device session.
type SessionView struct {
	ID           string    `json:"id"`
	Fingerprint  string    `json:"device_fingerprint"`
	UserAgent    string    `json:"user_agent,omitempty"`
	IP           string    `json:"ip,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Current      bool      `json:"current"`
}

// SessionListResponse wraps the device session listing.
type SessionListResponse struct {
	Sessions []SessionView `json:"sessions"`
}

// HealthResponse reports service status for probes.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
