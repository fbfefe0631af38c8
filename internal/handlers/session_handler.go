package handlers

import (
	"net/http"
	"strings"

	"chat-log-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler reports whether a phone's messaging window is open
type SessionHandler struct {
	sessionService SessionServiceInterface
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService SessionServiceInterface) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// GetSession handles GET /session/:phone
func (h *SessionHandler) GetSession(c *gin.Context) {
	phone := strings.TrimSpace(c.Param("phone"))

	status, err := h.sessionService.GetStatus(c.Request.Context(), phone)
	if err != nil {
		logServiceError("Failed to get session status", err, zap.String("phone", phone))
		respondError(c, err, "Failed to get session status")
		return
	}

	logger.Debug("Session status checked",
		zap.String("phone", phone),
		zap.Bool("session_active", status.SessionActive),
	)
	c.JSON(http.StatusOK, status)
}
