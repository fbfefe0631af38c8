package handlers

import (
	"context"

	"chat-log-server/internal/models"
)

// MessageServiceInterface defines the contract for message log operations
// This interface is used for dependency injection and testing
type MessageServiceInterface interface {
	LogMessage(ctx context.Context, req *models.LogMessageRequest) (*models.Message, error)
	LogDashboardMessage(ctx context.Context, req *models.DashboardMessageRequest) (*models.Message, error)
	UpdateMessage(ctx context.Context, id int64, patch models.MessagePatch) (*models.Message, error)
	DeleteMessage(ctx context.Context, id int64) (int64, error)
	DeleteConversation(ctx context.Context, phone string) (int64, error)
	ApplyDeliveryStatuses(ctx context.Context, updates []models.StatusUpdate) (*models.DeliveryStatusResult, error)
}

// AggregationServiceInterface defines the contract for the derived read views
type AggregationServiceInterface interface {
	ListContacts(ctx context.Context, onlyFollowUp bool) ([]*models.ContactSummary, error)
	GetConversation(ctx context.Context, phone string, limit, offset int) ([]*models.Message, error)
}

// ContactServiceInterface defines the contract for contact directory overrides
type ContactServiceInterface interface {
	GetContact(ctx context.Context, phone string) (*models.Contact, error)
	UpsertContact(ctx context.Context, phone, displayName, notes string) (*models.Contact, error)
}

// ExclusionServiceInterface defines the contract for the global exclusion policy
type ExclusionServiceInterface interface {
	GetFilters(ctx context.Context) (*models.ExclusionFilters, error)
	SetFilters(ctx context.Context, filters *models.ExclusionFilters) (*models.ExclusionFilters, error)
	ClearFilters(ctx context.Context) (int64, error)
}

// AutomationServiceInterface defines the contract for per-phone automation flags
type AutomationServiceInterface interface {
	GetStatus(ctx context.Context, phone string) (*models.AutomationStatus, error)
	SetEnabled(ctx context.Context, phone string, enabled bool) (*models.AutomationStatus, error)
}

// AlertServiceInterface defines the contract for per-phone alerts
type AlertServiceInterface interface {
	GetAlert(ctx context.Context, phone string) (*models.AlertFlag, error)
	SetAlert(ctx context.Context, phone string, hasAlert bool) (*models.AlertFlag, error)
	ClearAlert(ctx context.Context, phone string) (*models.AlertFlag, error)
	ListAlerts(ctx context.Context) ([]*models.AlertFlag, error)
}

// SessionServiceInterface defines the contract for session window checks
type SessionServiceInterface interface {
	GetStatus(ctx context.Context, phone string) (*models.SessionStatus, error)
}
