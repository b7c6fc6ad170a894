package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/transport/http/middleware"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/usecase"
)

// SessionHandler exposes device session enumeration and termination.
type SessionHandler struct {
	auth     *usecase.AuthService
	sessions *usecase.SessionService
	cookies  *CookieWriter
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(auth *usecase.AuthService, sessions *usecase.SessionService, cookies *CookieWriter) *SessionHandler {
	return &SessionHandler{auth: auth, sessions: sessions, cookies: cookies}
}

// RegisterRoutes binds the session management routes behind authentication.
func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup, csrfGuard gin.HandlerFunc) {
	r.GET("/sessions", middleware.RequireAuth(h.auth), h.list)
	r.DELETE("/sessions/:id", middleware.RequireAuth(h.auth), wrap(csrfGuard), h.terminate)
}

func (h *SessionHandler) list(c *gin.Context) {
	user, ok := middleware.AuthenticatedUser(c)
	sessionID, okSession := middleware.AuthenticatedSessionID(c)
	if !ok || !okSession {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required", ""))
		return
	}

	summaries, err := h.sessions.ListSessions(c.Request.Context(), user.ID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list sessions", ""))
		return
	}

	views := make([]SessionView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, SessionView{
			ID:           s.SessionID,
			Fingerprint:  s.DeviceFingerprint,
			UserAgent:    s.UserAgent,
			IP:           s.IP,
			CreatedAt:    s.CreatedAt,
			LastActivity: s.LastActivity,
			Current:      s.Current,
		})
	}

	c.JSON(http.StatusOK, SessionListResponse{Sessions: views})
}

func (h *SessionHandler) terminate(c *gin.Context) {
	user, ok := middleware.AuthenticatedUser(c)
	currentSessionID, okSession := middleware.AuthenticatedSessionID(c)
	if !ok || !okSession {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required", ""))
		return
	}

	targetID := c.Param("id")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "session id required", ""))
		return
	}

	err := h.sessions.TerminateDevice(c.Request.Context(), user.ID, targetID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrSessionNotFound, Status: http.StatusNotFound, Message: "Session not found", Code: "SESSION_NOT_FOUND"},
		}, http.StatusInternalServerError, "failed to terminate session")
		return
	}

	// Terminating the session that authenticated this request also ends it.
	if targetID == currentSessionID {
		h.cookies.ClearSessionCookies(c)
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Session terminated"})
}
