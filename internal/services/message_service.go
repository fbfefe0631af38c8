package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chat-log-server/internal/db"
	"chat-log-server/internal/models"
	"chat-log-server/pkg/logger"

	"go.uber.org/zap"
)

const (
	// DashboardAutomationTag marks messages typed by an operator
	DashboardAutomationTag = "Dashboard"

	// DefaultDashboardUser labels operator messages without a handled_by
	DefaultDashboardUser = "Dashboard User"
)

// MessageService owns the message log: appends, patches, deletes and
// delivery receipts.
type MessageService struct {
	messages   db.MessageRepository
	alerts     db.AlertRepository
	autoAlerts bool
	now        func() time.Time
}

// NewMessageService creates a new MessageService. When autoAlerts is set,
// inbound user messages raise the phone's alert and dashboard replies clear it.
func NewMessageService(messages db.MessageRepository, alerts db.AlertRepository, autoAlerts bool) *MessageService {
	return &MessageService{
		messages:   messages,
		alerts:     alerts,
		autoAlerts: autoAlerts && alerts != nil,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeDirection maps ingestion vocabulary onto user or bot.
func NormalizeDirection(raw string) (models.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user", "incoming", "client":
		return models.DirectionUser, nil
	case "bot", "outgoing", "agent":
		return models.DirectionBot, nil
	case "":
		return "", fmt.Errorf("%w: direction is required", ErrInvalidDirection)
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidDirection, strings.TrimSpace(raw))
}

// LogMessage appends a message from the ingestion pipeline.
func (s *MessageService) LogMessage(ctx context.Context, req *models.LogMessageRequest) (*models.Message, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrBodyRequired
	}
	direction, err := NormalizeDirection(req.Direction)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		Phone:             phone,
		ClientName:        req.ClientName,
		Direction:         direction,
		Body:              req.Message,
		MediaURL:          req.MediaURL,
		AutomationTag:     req.Automation,
		ProviderMessageID: emptyToNil(req.ProviderMessageID),
		Timestamp:         s.now(),
	}
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		msg.Timestamp = req.Timestamp.UTC()
	}
	if req.FollowUpNeeded != nil {
		msg.FollowUpNeeded = *req.FollowUpNeeded
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to log message: %w", err)
	}

	if direction == models.DirectionUser {
		s.setAlert(ctx, phone, true)
	}

	return msg, nil
}

// LogDashboardMessage appends an operator reply. An unparseable timestamp
// falls back to the ingestion time.
func (s *MessageService) LogDashboardMessage(ctx context.Context, req *models.DashboardMessageRequest) (*models.Message, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrBodyRequired
	}

	ts, ok := models.ParseTimestamp(req.Timestamp)
	if !ok {
		logger.Warn("Unparseable dashboard timestamp, using ingestion time",
			zap.String("phone", phone),
			zap.String("timestamp", req.Timestamp),
		)
		ts = s.now()
	}

	clientName, err := s.messages.LatestClientName(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to look up client name: %w", err)
	}

	handledBy := DefaultDashboardUser
	if req.HandledBy != nil && strings.TrimSpace(*req.HandledBy) != "" {
		handledBy = strings.TrimSpace(*req.HandledBy)
	}
	notes := ""
	if req.Notes != nil {
		notes = *req.Notes
	}
	tag := DashboardAutomationTag

	msg := &models.Message{
		Phone:             phone,
		ClientName:        clientName,
		Direction:         models.DirectionDashboard,
		Body:              req.Message,
		AutomationTag:     &tag,
		ProviderMessageID: emptyToNil(req.ProviderMessageID),
		Timestamp:         ts,
		HandledBy:         &handledBy,
		Notes:             &notes,
	}
	if req.FollowUpNeeded != nil {
		msg.FollowUpNeeded = *req.FollowUpNeeded
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to log dashboard message: %w", err)
	}

	s.setAlert(ctx, phone, false)

	return msg, nil
}

// GetMessage retrieves a message by id
func (s *MessageService) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

// ListByPhone returns a phone's raw log, unfiltered, in the requested order.
func (s *MessageService) ListByPhone(ctx context.Context, phone string, order models.MessageOrder, limit, offset int) ([]*models.Message, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	if offset < 0 {
		offset = 0
	}
	return s.messages.ListByPhone(ctx, phone, order, limit, offset)
}

// UpdateMessage applies the provided fields of patch in a single write.
func (s *MessageService) UpdateMessage(ctx context.Context, id int64, patch models.MessagePatch) (*models.Message, error) {
	msg, err := s.messages.Patch(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

// DeleteMessage removes one message
func (s *MessageService) DeleteMessage(ctx context.Context, id int64) (int64, error) {
	deleted, err := s.messages.Delete(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete message: %w", err)
	}
	if deleted == 0 {
		return 0, ErrMessageNotFound
	}
	return deleted, nil
}

// DeleteConversation removes every message for phone
func (s *MessageService) DeleteConversation(ctx context.Context, phone string) (int64, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return 0, ErrPhoneRequired
	}
	deleted, err := s.messages.DeleteByPhone(ctx, phone)
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversation: %w", err)
	}
	if deleted == 0 {
		return 0, ErrConversationNotFound
	}
	return deleted, nil
}

// SetDeliveryStatus correlates a provider receipt. An unknown provider id is
// logged and reported as unmatched, not as an error.
func (s *MessageService) SetDeliveryStatus(ctx context.Context, providerMessageID string, status models.DeliveryStatus) (bool, error) {
	providerMessageID = strings.TrimSpace(providerMessageID)
	if providerMessageID == "" {
		return false, fmt.Errorf("%w: missing message id", ErrMalformedStatusEvent)
	}
	status = models.DeliveryStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return false, fmt.Errorf("%w: %s", ErrInvalidDeliveryStatus, status)
	}

	matched, err := s.messages.SetDeliveryStatus(ctx, providerMessageID, status)
	if err != nil {
		return false, fmt.Errorf("failed to set delivery status: %w", err)
	}
	if matched == 0 {
		logger.Warn("Delivery status for unknown provider message",
			zap.String("provider_message_id", providerMessageID),
			zap.String("status", string(status)),
		)
		return false, nil
	}
	return true, nil
}

// ApplyDeliveryStatuses validates every update before writing any of them,
// then applies them in order.
func (s *MessageService) ApplyDeliveryStatuses(ctx context.Context, updates []models.StatusUpdate) (*models.DeliveryStatusResult, error) {
	for i := range updates {
		updates[i].Status = models.DeliveryStatus(strings.ToLower(strings.TrimSpace(string(updates[i].Status))))
		if strings.TrimSpace(updates[i].ProviderMessageID) == "" {
			return nil, fmt.Errorf("%w: missing message id", ErrMalformedStatusEvent)
		}
		if !updates[i].Status.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidDeliveryStatus, updates[i].Status)
		}
	}

	result := &models.DeliveryStatusResult{Success: true, Unmatched: []string{}}
	for _, u := range updates {
		matched, err := s.SetDeliveryStatus(ctx, u.ProviderMessageID, u.Status)
		if err != nil {
			return nil, err
		}
		if matched {
			result.Updated++
		} else {
			result.Unmatched = append(result.Unmatched, u.ProviderMessageID)
		}
	}
	return result, nil
}

// ExtractStatusUpdates flattens a provider callback. A payload without any
// entry/changes/statuses nesting is malformed.
func ExtractStatusUpdates(payload *models.DeliveryStatusPayload) ([]models.StatusUpdate, error) {
	if payload == nil || len(payload.Entry) == 0 {
		return nil, fmt.Errorf("%w: missing entry", ErrMalformedStatusEvent)
	}

	var updates []models.StatusUpdate
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, st := range change.Value.Statuses {
				updates = append(updates, models.StatusUpdate{
					ProviderMessageID: strings.TrimSpace(st.ID),
					Status:            models.DeliveryStatus(st.Status),
				})
			}
		}
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no statuses", ErrMalformedStatusEvent)
	}
	return updates, nil
}

func (s *MessageService) setAlert(ctx context.Context, phone string, raised bool) {
	if !s.autoAlerts {
		return
	}
	if _, err := s.alerts.Set(ctx, phone, raised); err != nil {
		logger.Error("Failed to update alert after message",
			zap.String("phone", phone),
			zap.Bool("has_alert", raised),
			zap.Error(err),
		)
	}
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
