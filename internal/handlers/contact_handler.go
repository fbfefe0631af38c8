package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"chat-log-server/internal/models"
	"chat-log-server/internal/services"
	"chat-log-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContactHandler serves the contact list, conversations and the contact directory
type ContactHandler struct {
	aggregationService AggregationServiceInterface
	contactService     ContactServiceInterface
}

// NewContactHandler creates a new contact handler
func NewContactHandler(aggregationService AggregationServiceInterface, contactService ContactServiceInterface) *ContactHandler {
	return &ContactHandler{
		aggregationService: aggregationService,
		contactService:     contactService,
	}
}

// ListContacts handles the contact summary list (GET /contacts)
func (h *ContactHandler) ListContacts(c *gin.Context) {
	logger.Info("List contacts endpoint called")

	onlyFollowUp := false
	for _, key := range []string{"onlyFollowUp", "only_follow_up"} {
		if raw, ok := c.GetQuery(key); ok {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + key + " value"})
				return
			}
			onlyFollowUp = v
		}
	}

	contacts, err := h.aggregationService.ListContacts(c.Request.Context(), onlyFollowUp)
	if err != nil {
		logServiceError("Failed to list contacts", err)
		respondError(c, err, "Failed to list contacts")
		return
	}

	logger.Info("Contacts retrieved successfully",
		zap.Int("count", len(contacts)),
		zap.Bool("only_follow_up", onlyFollowUp),
	)
	c.JSON(http.StatusOK, contacts)
}

// GetConversation handles a page of a phone's messages (GET /conversation/:phone)
func (h *ContactHandler) GetConversation(c *gin.Context) {
	logger.Info("Get conversation endpoint called")

	phone := strings.TrimSpace(c.Param("phone"))

	limit := services.DefaultConversationLimit
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit value"})
			return
		}
		limit = l
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		o, err := strconv.Atoi(offsetStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset value"})
			return
		}
		offset = o
	}

	limit, offset = services.ClampPage(limit, offset)

	messages, err := h.aggregationService.GetConversation(c.Request.Context(), phone, limit, offset)
	if err != nil {
		logServiceError("Failed to get conversation", err, zap.String("phone", phone))
		respondError(c, err, "Failed to get conversation")
		return
	}

	logger.Info("Conversation retrieved successfully",
		zap.String("phone", phone),
		zap.Int("count", len(messages)),
	)
	c.JSON(http.StatusOK, messages)
}

// GetProfile handles reading a directory override (GET /contacts/:phone/profile)
func (h *ContactHandler) GetProfile(c *gin.Context) {
	logger.Info("Get contact profile endpoint called")

	phone := strings.TrimSpace(c.Param("phone"))
	contact, err := h.contactService.GetContact(c.Request.Context(), phone)
	if err != nil {
		logServiceError("Failed to retrieve contact profile", err, zap.String("phone", phone))
		respondError(c, err, "Failed to retrieve contact")
		return
	}

	c.JSON(http.StatusOK, contact)
}

// UpsertProfile handles replacing a directory override (PUT /contacts/:phone/profile)
func (h *ContactHandler) UpsertProfile(c *gin.Context) {
	logger.Info("Upsert contact profile endpoint called")

	phone := strings.TrimSpace(c.Param("phone"))

	var req models.UpsertContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid contact profile request",
			zap.String("phone", phone),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	contact, err := h.contactService.UpsertContact(c.Request.Context(), phone, req.DisplayName, req.Notes)
	if err != nil {
		logServiceError("Failed to save contact profile", err, zap.String("phone", phone))
		respondError(c, err, "Failed to save contact")
		return
	}

	logger.Info("Contact profile saved successfully", zap.String("phone", phone))
	c.JSON(http.StatusOK, contact)
}
