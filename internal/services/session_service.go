package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chat-log-server/internal/db"
	"chat-log-server/internal/models"
)

// DefaultSessionWindow is the provider's customer-service window after an
// inbound message.
const DefaultSessionWindow = 24 * time.Hour

// SessionService derives session activity from the message log on every call.
type SessionService struct {
	messages db.MessageRepository
	window   time.Duration
	now      func() time.Time
}

// NewSessionService creates a new SessionService. A non-positive window
// means DefaultSessionWindow.
func NewSessionService(messages db.MessageRepository, window time.Duration) *SessionService {
	if window <= 0 {
		window = DefaultSessionWindow
	}
	return &SessionService{
		messages: messages,
		window:   window,
		now:      time.Now,
	}
}

// IsActive reports whether the phone's latest user message is at most one
// window old.
func (s *SessionService) IsActive(ctx context.Context, phone string) (bool, error) {
	status, err := s.GetStatus(ctx, phone)
	if err != nil {
		return false, err
	}
	return status.SessionActive, nil
}

// GetStatus returns session activity with the inbound timestamp it was
// derived from.
func (s *SessionService) GetStatus(ctx context.Context, phone string) (*models.SessionStatus, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}

	last, err := s.messages.LatestInboundAt(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to get session status: %w", err)
	}

	status := &models.SessionStatus{Phone: phone}
	if last == nil {
		return status, nil
	}
	status.LastInboundAt = last
	status.SessionActive = s.now().Sub(*last) <= s.window
	return status, nil
}
