package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"chat-log-server/internal/models"
	"chat-log-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AutomationHandler handles per-phone automation toggles
type AutomationHandler struct {
	automationService AutomationServiceInterface
}

// NewAutomationHandler creates a new automation handler
func NewAutomationHandler(automationService AutomationServiceInterface) *AutomationHandler {
	return &AutomationHandler{automationService: automationService}
}

// GetAutomation handles GET /automation/:phone
func (h *AutomationHandler) GetAutomation(c *gin.Context) {
	phone := strings.TrimSpace(c.Param("phone"))

	status, err := h.automationService.GetStatus(c.Request.Context(), phone)
	if err != nil {
		logServiceError("Failed to get automation status", err, zap.String("phone", phone))
		respondError(c, err, "Failed to get automation status")
		return
	}

	c.JSON(http.StatusOK, status)
}

// UpdateAutomation handles PATCH /automation/:phone
func (h *AutomationHandler) UpdateAutomation(c *gin.Context) {
	logger.Info("Update automation endpoint called")

	phone := strings.TrimSpace(c.Param("phone"))

	var req models.AutomationUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid automation update request",
			zap.String("phone", phone),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "automation_enabled is required"})
		return
	}

	status, err := h.automationService.SetEnabled(c.Request.Context(), phone, *req.AutomationEnabled)
	if err != nil {
		logServiceError("Failed to update automation", err, zap.String("phone", phone))
		respondError(c, err, "Failed to update automation")
		return
	}

	logger.Info("Automation updated successfully",
		zap.String("phone", phone),
		zap.Bool("automation_enabled", status.AutomationEnabled),
	)
	c.JSON(http.StatusOK, status)
}

// AlertHandler handles per-phone attention alerts
type AlertHandler struct {
	alertService AlertServiceInterface
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService AlertServiceInterface) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// ListAlerts handles GET /alerts
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	alerts, err := h.alertService.ListAlerts(c.Request.Context())
	if err != nil {
		logServiceError("Failed to list alerts", err)
		respondError(c, err, "Failed to list alerts")
		return
	}

	phones := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		phones = append(phones, alert.Phone)
	}

	c.JSON(http.StatusOK, gin.H{
		"phones": phones,
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// GetAlert handles GET /alerts/:phone
func (h *AlertHandler) GetAlert(c *gin.Context) {
	phone := strings.TrimSpace(c.Param("phone"))

	alert, err := h.alertService.GetAlert(c.Request.Context(), phone)
	if err != nil {
		logServiceError("Failed to get alert", err, zap.String("phone", phone))
		respondError(c, err, "Failed to get alert")
		return
	}

	c.JSON(http.StatusOK, alert)
}

// SetAlert handles POST /alerts/:phone. An empty body raises the alert.
func (h *AlertHandler) SetAlert(c *gin.Context) {
	logger.Info("Set alert endpoint called")

	phone := strings.TrimSpace(c.Param("phone"))

	var req models.AlertUpdate
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Invalid alert request",
			zap.String("phone", phone),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	hasAlert := true
	if req.HasAlert != nil {
		hasAlert = *req.HasAlert
	}

	alert, err := h.alertService.SetAlert(c.Request.Context(), phone, hasAlert)
	if err != nil {
		logServiceError("Failed to set alert", err, zap.String("phone", phone))
		respondError(c, err, "Failed to set alert")
		return
	}

	logger.Info("Alert updated successfully",
		zap.String("phone", phone),
		zap.Bool("has_alert", alert.HasAlert),
	)
	c.JSON(http.StatusOK, alert)
}

// ClearAlert handles DELETE /alerts/:phone
func (h *AlertHandler) ClearAlert(c *gin.Context) {
	logger.Info("Clear alert endpoint called")

	phone := strings.TrimSpace(c.Param("phone"))

	alert, err := h.alertService.ClearAlert(c.Request.Context(), phone)
	if err != nil {
		logServiceError("Failed to clear alert", err, zap.String("phone", phone))
		respondError(c, err, "Failed to clear alert")
		return
	}

	logger.Info("Alert cleared successfully", zap.String("phone", phone))
	c.JSON(http.StatusOK, alert)
}
