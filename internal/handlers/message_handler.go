package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"chat-log-server/internal/models"
	"chat-log-server/internal/services"
	"chat-log-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessageHandler handles writes to the message log
type MessageHandler struct {
	messageService MessageServiceInterface
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService MessageServiceInterface) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// LogMessage handles messages from the ingestion pipeline (POST /log)
func (h *MessageHandler) LogMessage(c *gin.Context) {
	logger.Info("Log message endpoint called")

	var req models.LogMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid log message request", zap.Error(err))
		if bodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	msg, err := h.messageService.LogMessage(c.Request.Context(), &req)
	if err != nil {
		logServiceError("Failed to log message", err,
			zap.String("phone", req.Phone),
			zap.String("direction", req.Direction),
		)
		respondError(c, err, "Failed to log message")
		return
	}

	logger.Info("Message logged successfully",
		zap.Int64("message_id", msg.ID),
		zap.String("phone", msg.Phone),
		zap.String("direction", string(msg.Direction)),
	)
	c.JSON(http.StatusOK, msg)
}

// LogDashboardMessage handles replies typed in the dashboard (POST /log-dashboard)
func (h *MessageHandler) LogDashboardMessage(c *gin.Context) {
	logger.Info("Log dashboard message endpoint called")

	var req models.DashboardMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid dashboard message request", zap.Error(err))
		if bodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	msg, err := h.messageService.LogDashboardMessage(c.Request.Context(), &req)
	if err != nil {
		logServiceError("Failed to log dashboard message", err, zap.String("phone", req.Phone))
		respondError(c, err, "Failed to log message")
		return
	}

	logger.Info("Dashboard message logged successfully",
		zap.Int64("message_id", msg.ID),
		zap.String("phone", msg.Phone),
	)
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"id":      msg.ID,
		"message": msg,
	})
}

// UpdateMessage handles partial updates of a message (PATCH /message/:id)
func (h *MessageHandler) UpdateMessage(c *gin.Context) {
	logger.Info("Update message endpoint called")

	id, ok := parseMessageID(c)
	if !ok {
		return
	}

	var patch models.MessagePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		logger.Warn("Invalid update message request",
			zap.Int64("message_id", id),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	msg, err := h.messageService.UpdateMessage(c.Request.Context(), id, patch)
	if err != nil {
		logServiceError("Failed to update message", err, zap.Int64("message_id", id))
		respondError(c, err, "Failed to update message")
		return
	}

	logger.Info("Message updated successfully", zap.Int64("message_id", id))
	c.JSON(http.StatusOK, msg)
}

// DeleteMessage handles deleting one message (DELETE /message/:id)
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	logger.Info("Delete message endpoint called")

	id, ok := parseMessageID(c)
	if !ok {
		return
	}

	deleted, err := h.messageService.DeleteMessage(c.Request.Context(), id)
	if err != nil {
		logServiceError("Failed to delete message", err, zap.Int64("message_id", id))
		respondError(c, err, "Failed to delete message")
		return
	}

	logger.Info("Message deleted successfully", zap.Int64("message_id", id))
	c.JSON(http.StatusOK, models.DeleteResponse{
		Success:      true,
		Message:      fmt.Sprintf("Message %d deleted successfully", id),
		DeletedCount: &deleted,
	})
}

// DeleteConversation handles deleting every message of a phone (DELETE /conversation/:phone)
func (h *MessageHandler) DeleteConversation(c *gin.Context) {
	logger.Info("Delete conversation endpoint called")

	phone := strings.TrimSpace(c.Param("phone"))
	deleted, err := h.messageService.DeleteConversation(c.Request.Context(), phone)
	if err != nil {
		logServiceError("Failed to delete conversation", err, zap.String("phone", phone))
		respondError(c, err, "Failed to delete conversation")
		return
	}

	logger.Info("Conversation deleted successfully",
		zap.String("phone", phone),
		zap.Int64("count", deleted),
	)
	c.JSON(http.StatusOK, models.DeleteResponse{
		Success:      true,
		Message:      fmt.Sprintf("Deleted %d messages for %s", deleted, phone),
		DeletedCount: &deleted,
	})
}

// DeliveryStatus handles provider delivery receipts (POST /delivery-status)
func (h *MessageHandler) DeliveryStatus(c *gin.Context) {
	logger.Info("Delivery status endpoint called")

	var payload models.DeliveryStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		logger.Warn("Invalid delivery status payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	updates, err := services.ExtractStatusUpdates(&payload)
	if err != nil {
		logger.Warn("Malformed delivery status payload", zap.Error(err))
		respondError(c, err, "Failed to process delivery status")
		return
	}

	result, err := h.messageService.ApplyDeliveryStatuses(c.Request.Context(), updates)
	if err != nil {
		logServiceError("Failed to apply delivery statuses", err)
		respondError(c, err, "Failed to process delivery status")
		return
	}

	logger.Info("Delivery statuses applied",
		zap.Int("count", len(updates)),
		zap.Int("updated", result.Updated),
		zap.Int("unmatched", len(result.Unmatched)),
	)
	c.JSON(http.StatusOK, result)
}

func parseMessageID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("Invalid message id", zap.String("id", raw))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return 0, false
	}
	return id, true
}
