package services

import (
	"context"
	"fmt"
	"strings"

	"chat-log-server/internal/db"
	"chat-log-server/internal/models"
)

// AutomationService manages per-phone automation flags. Phones without a
// record are enabled.
type AutomationService struct {
	repo db.AutomationRepository
}

// NewAutomationService creates a new AutomationService
func NewAutomationService(repo db.AutomationRepository) *AutomationService {
	return &AutomationService{repo: repo}
}

// GetStatus returns the effective automation state for phone
func (s *AutomationService) GetStatus(ctx context.Context, phone string) (*models.AutomationStatus, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}

	flag, err := s.repo.Get(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to get automation flag: %w", err)
	}

	enabled := true
	if flag != nil {
		enabled = flag.Enabled
	}
	return &models.AutomationStatus{Phone: phone, AutomationEnabled: enabled}, nil
}

// SetEnabled stores the automation state for phone
func (s *AutomationService) SetEnabled(ctx context.Context, phone string, enabled bool) (*models.AutomationStatus, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}

	flag, err := s.repo.Set(ctx, phone, enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to set automation flag: %w", err)
	}
	return &models.AutomationStatus{Phone: phone, AutomationEnabled: flag.Enabled}, nil
}

// AlertService manages per-phone attention alerts. Phones without a record
// have no alert.
type AlertService struct {
	repo db.AlertRepository
}

// NewAlertService creates a new AlertService
func NewAlertService(repo db.AlertRepository) *AlertService {
	return &AlertService{repo: repo}
}

// GetAlert returns the effective alert state for phone
func (s *AlertService) GetAlert(ctx context.Context, phone string) (*models.AlertFlag, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}

	flag, err := s.repo.Get(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	if flag == nil {
		return &models.AlertFlag{Phone: phone, HasAlert: false}, nil
	}
	return flag, nil
}

// SetAlert stores the alert state for phone
func (s *AlertService) SetAlert(ctx context.Context, phone string, hasAlert bool) (*models.AlertFlag, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}

	flag, err := s.repo.Set(ctx, phone, hasAlert)
	if err != nil {
		return nil, fmt.Errorf("failed to set alert: %w", err)
	}
	return flag, nil
}

// ClearAlert lowers the alert for phone
func (s *AlertService) ClearAlert(ctx context.Context, phone string) (*models.AlertFlag, error) {
	return s.SetAlert(ctx, phone, false)
}

// ListAlerts returns every phone with a raised alert
func (s *AlertService) ListAlerts(ctx context.Context) ([]*models.AlertFlag, error) {
	alerts, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}
