package services

import (
	"context"
	"fmt"
	"strings"

	"chat-log-server/internal/db"
	"chat-log-server/internal/models"
)

// ContactService manages the contact directory overrides
type ContactService struct {
	repo db.ContactRepository
}

// NewContactService creates a new ContactService
func NewContactService(repo db.ContactRepository) *ContactService {
	return &ContactService{repo: repo}
}

// GetContact returns the override for phone
func (s *ContactService) GetContact(ctx context.Context, phone string) (*models.Contact, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}

	contact, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil {
		return nil, ErrContactNotFound
	}
	return contact, nil
}

// UpsertContact creates or replaces the override for phone
func (s *ContactService) UpsertContact(ctx context.Context, phone, displayName, notes string) (*models.Contact, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}

	contact := &models.Contact{
		Phone:       phone,
		DisplayName: strings.TrimSpace(displayName),
		Notes:       notes,
	}
	if err := s.repo.Upsert(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to save contact: %w", err)
	}
	return contact, nil
}
