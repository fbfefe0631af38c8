package handlers

import (
	"net/http"

	"chat-log-server/internal/models"
	"chat-log-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FilterHandler manages the global exclusion filters
type FilterHandler struct {
	exclusionService ExclusionServiceInterface
}

// NewFilterHandler creates a new filter handler
func NewFilterHandler(exclusionService ExclusionServiceInterface) *FilterHandler {
	return &FilterHandler{exclusionService: exclusionService}
}

// GetExclusions handles GET /filters/exclusions
func (h *FilterHandler) GetExclusions(c *gin.Context) {
	filters, err := h.exclusionService.GetFilters(c.Request.Context())
	if err != nil {
		logServiceError("Failed to get exclusion filters", err)
		respondError(c, err, "Failed to get exclusion filters")
		return
	}

	c.JSON(http.StatusOK, models.NewExclusionFiltersResponse(filters))
}

// SetExclusions handles POST /filters/exclusions, replacing both lists
func (h *FilterHandler) SetExclusions(c *gin.Context) {
	logger.Info("Set exclusion filters endpoint called")

	var req models.ExclusionFiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid exclusion filters request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	filters, err := h.exclusionService.SetFilters(c.Request.Context(), req.Filters())
	if err != nil {
		logServiceError("Failed to set exclusion filters", err)
		respondError(c, err, "Failed to set exclusion filters")
		return
	}

	resp := models.NewExclusionFiltersResponse(filters)
	logger.Info("Exclusion filters updated",
		zap.Int("total_excluded_ids", resp.TotalExcludedIDs),
		zap.Int("total_patterns", resp.TotalPatterns),
	)
	c.JSON(http.StatusOK, resp)
}

// ClearExclusions handles DELETE /filters/exclusions
func (h *FilterHandler) ClearExclusions(c *gin.Context) {
	logger.Info("Clear exclusion filters endpoint called")

	removed, err := h.exclusionService.ClearFilters(c.Request.Context())
	if err != nil {
		logServiceError("Failed to clear exclusion filters", err)
		respondError(c, err, "Failed to clear exclusion filters")
		return
	}

	logger.Info("Exclusion filters cleared", zap.Int64("count", removed))
	c.JSON(http.StatusOK, models.DeleteResponse{
		Success:      true,
		Message:      "All ID exclusion filters cleared",
		DeletedCount: &removed,
	})
}
