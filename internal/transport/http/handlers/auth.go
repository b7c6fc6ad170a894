package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/security"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/transport/http/middleware"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/usecase"
)

// AuthHandler exposes registration, login, and credential lifecycle endpoints.
type AuthHandler struct {
	auth     *usecase.AuthService
	rotation *usecase.RotationService
	sessions *usecase.SessionService
	csrf     *usecase.CSRFService
	cookies  *CookieWriter
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(
	auth *usecase.AuthService,
	rotation *usecase.RotationService,
	sessions *usecase.SessionService,
	csrf *usecase.CSRFService,
	cookies *CookieWriter,
) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		rotation: rotation,
		sessions: sessions,
		csrf:     csrf,
		cookies:  cookies,
	}
}

// RegisterRoutes binds authentication routes, applying optional middleware ahead of the credential endpoints.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, registerLimit, loginLimit, refreshLimit gin.HandlerFunc, csrfGuard gin.HandlerFunc) {
	r.POST("/register", wrap(registerLimit), h.register)
	r.POST("/verify/:token", h.verifyEmail)
	r.POST("/login", wrap(loginLimit), h.login)
	r.POST("/verify-otp", wrap(loginLimit), h.verifyOTP)
	r.POST("/refresh", wrap(refreshLimit), h.refresh)
	r.POST("/logout", middleware.RequireAuth(h.auth), wrap(csrfGuard), h.logout)
	r.POST("/refresh-csrf", middleware.RequireAuth(h.auth), h.refreshCSRF)
	r.GET("/me", middleware.RequireAuth(h.auth), h.me)
}

// wrap turns a nil middleware into a pass-through so route chains stay dense.
func wrap(mw gin.HandlerFunc) gin.HandlerFunc {
	if mw != nil {
		return mw
	}
	return func(c *gin.Context) { c.Next() }
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload", ""))
		return
	}

	err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		var pwErr *security.PasswordValidationError
		if errors.As(err, &pwErr) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, pwErr.Message, pwErr.Code))
			return
		}

		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserExists, Status: http.StatusConflict, Message: "User already exists", Code: "USER_EXISTS"},
		}, http.StatusInternalServerError, "registration failed")
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{
		Message: "Registration accepted. Check your email to verify the account.",
	})
}

func (h *AuthHandler) verifyEmail(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "verification token required", ""))
		return
	}

	user, err := h.auth.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrVerificationExpired, Status: http.StatusBadRequest, Message: "Verification link is invalid or expired", Code: "VERIFICATION_EXPIRED"},
			{Err: usecase.ErrUserExists, Status: http.StatusConflict, Message: "User already exists", Code: "USER_EXISTS"},
		}, http.StatusInternalServerError, "verification failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified. You can now log in.",
		"user":    newUserSummary(user),
	})
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload", ""))
		return
	}

	err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "Invalid email or password", Code: "INVALID_CREDENTIALS"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "OTP sent. Verify to complete login."})
}

func (h *AuthHandler) verifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid otp payload", ""))
		return
	}

	device := middleware.DeviceInfoFromRequest(c)

	user, creds, err := h.auth.VerifyOTP(c.Request.Context(), req.Email, req.OTP, device)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrOTPExpired, Status: http.StatusUnauthorized, Message: "OTP expired. Request a new one.", Code: "OTP_EXPIRED"},
			{Err: usecase.ErrInvalidOTP, Status: http.StatusUnauthorized, Message: "Invalid OTP", Code: "OTP_INVALID"},
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "Invalid email or password", Code: "INVALID_CREDENTIALS"},
		}, http.StatusInternalServerError, "otp verification failed")
		return
	}

	h.cookies.SetSessionCookies(c, creds)

	c.JSON(http.StatusOK, LoginResponse{
		Message:   "Login successful",
		User:      newUserSummary(user),
		CSRFToken: creds.CSRFToken,
	})
}

func (h *AuthHandler) refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "Refresh token not found", "REFRESH_TOKEN_MISSING"))
		return
	}

	device := middleware.DeviceInfoFromRequest(c)

	creds, _, err := h.rotation.Rotate(c.Request.Context(), refreshToken, device)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrRefreshTokenReused),
			errors.Is(err, usecase.ErrRefreshTokenInvalid):
			h.cookies.ClearSessionCookies(c)
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "Invalid refresh token", "REFRESH_TOKEN_INVALID"))
		case errors.Is(err, usecase.ErrRefreshTokenMissing):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "Refresh token not found", "REFRESH_TOKEN_MISSING"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "token refresh failed", ""))
		}
		return
	}

	h.cookies.SetSessionCookies(c, creds)

	c.JSON(http.StatusOK, RefreshResponse{
		Message:   "Tokens refreshed",
		CSRFToken: creds.CSRFToken,
	})
}

func (h *AuthHandler) logout(c *gin.Context) {
	user, ok := middleware.AuthenticatedUser(c)
	sessionID, okSession := middleware.AuthenticatedSessionID(c)
	if !ok || !okSession {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required", ""))
		return
	}

	if err := h.sessions.InvalidateSession(c.Request.Context(), user.ID, sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed", ""))
		return
	}

	h.cookies.ClearSessionCookies(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

func (h *AuthHandler) refreshCSRF(c *gin.Context) {
	user, ok := middleware.AuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required", ""))
		return
	}

	token, err := h.csrf.Refresh(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "csrf refresh failed", ""))
		return
	}

	h.cookies.SetCSRFCookie(c, token)
	c.JSON(http.StatusOK, CSRFResponse{CSRFToken: token})
}

func (h *AuthHandler) me(c *gin.Context) {
	user, ok := middleware.AuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required", ""))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserSummary(user)})
}
