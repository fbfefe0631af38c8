package handlers

import (
	"errors"
	"net/http"

	"chat-log-server/internal/services"
	"chat-log-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusForError maps service sentinels to HTTP status codes. Anything
// unrecognised is a server error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrMessageNotFound),
		errors.Is(err, services.ErrConversationNotFound),
		errors.Is(err, services.ErrContactNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidDirection),
		errors.Is(err, services.ErrPhoneRequired),
		errors.Is(err, services.ErrBodyRequired),
		errors.Is(err, services.ErrInvalidDeliveryStatus),
		errors.Is(err, services.ErrMalformedStatusEvent):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// logServiceError logs client errors at warn and everything else at error.
func logServiceError(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if statusForError(err) < http.StatusInternalServerError {
		logger.Warn(msg, fields...)
		return
	}
	logger.Error(msg, fields...)
}

// respondError writes err as {"error": ...}. Server errors hide the cause
// behind fallback.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bodyTooLarge reports whether binding failed on the request size limit.
func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
