package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"chat-log-server/internal/db"
	"chat-log-server/internal/models"
)

const (
	// DefaultConversationLimit is used when a caller passes no limit
	DefaultConversationLimit = 50

	// MaxConversationLimit caps one conversation page
	MaxConversationLimit = 100
)

// AggregationOptions toggles the overlays layered on the message log.
type AggregationOptions struct {
	ExclusionFilters bool
	ContactDirectory bool
}

// AggregationService derives contact summaries and filtered conversations
// from the message log, the contact directory and the exclusion policy.
type AggregationService struct {
	messages   db.MessageRepository
	contacts   db.ContactRepository
	exclusions *ExclusionService
	opts       AggregationOptions
}

// NewAggregationService creates a new AggregationService
func NewAggregationService(messages db.MessageRepository, contacts db.ContactRepository, exclusions *ExclusionService, opts AggregationOptions) *AggregationService {
	return &AggregationService{
		messages:   messages,
		contacts:   contacts,
		exclusions: exclusions,
		opts:       opts,
	}
}

// ListContacts returns one summary per phone with visible messages, newest
// conversation first. The latest message is the one with the greatest
// timestamp, the highest id winning ties. FollowUpOpen is true when any
// visible message of the phone needs follow-up.
func (s *AggregationService) ListContacts(ctx context.Context, onlyFollowUp bool) ([]*models.ContactSummary, error) {
	policy, err := s.policy(ctx)
	if err != nil {
		return nil, err
	}

	all, err := s.messages.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	summaries := make(map[string]*models.ContactSummary)
	var phones []string
	for _, msg := range all {
		if policy.ShouldExclude(msg.ID) {
			continue
		}
		summary, seen := summaries[msg.Phone]
		if !seen {
			// rows arrive newest first within a phone
			summary = &models.ContactSummary{
				Phone:         msg.Phone,
				ClientName:    msg.ClientName,
				LastMessage:   msg.Body,
				LastTime:      msg.Timestamp,
				LastDirection: msg.Direction,
			}
			summaries[msg.Phone] = summary
			phones = append(phones, msg.Phone)
		}
		if msg.FollowUpNeeded {
			summary.FollowUpOpen = true
		}
	}

	if err := s.overlayDirectory(ctx, summaries); err != nil {
		return nil, err
	}

	result := make([]*models.ContactSummary, 0, len(phones))
	for _, phone := range phones {
		summary := summaries[phone]
		if onlyFollowUp && !summary.FollowUpOpen {
			continue
		}
		result = append(result, summary)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].LastTime.Equal(result[j].LastTime) {
			return result[i].LastTime.After(result[j].LastTime)
		}
		return result[i].Phone < result[j].Phone
	})

	return result, nil
}

// GetConversation returns a page of a phone's visible messages, oldest
// first. Pagination counts only visible messages.
func (s *AggregationService) GetConversation(ctx context.Context, phone string, limit, offset int) ([]*models.Message, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	limit, offset = ClampPage(limit, offset)

	policy, err := s.policy(ctx)
	if err != nil {
		return nil, err
	}

	if policy.Empty() {
		msgs, err := s.messages.ListByPhone(ctx, phone, models.OrderByTimestamp, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to get conversation: %w", err)
		}
		return msgs, nil
	}

	all, err := s.messages.ListByPhone(ctx, phone, models.OrderByTimestamp, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	visible := policy.Apply(all)

	if offset >= len(visible) {
		return []*models.Message{}, nil
	}
	end := offset + limit
	if end > len(visible) {
		end = len(visible)
	}
	return visible[offset:end], nil
}

// GetContactName returns the directory display name for phone, or nil when
// the phone has no override. Callers apply their own fallback.
func (s *AggregationService) GetContactName(ctx context.Context, phone string) (*string, error) {
	if !s.opts.ContactDirectory {
		return nil, nil
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	contact, err := s.contacts.GetByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil || contact.DisplayName == "" {
		return nil, nil
	}
	name := contact.DisplayName
	return &name, nil
}

// ClampPage bounds a page request to 1..MaxConversationLimit and offset >= 0.
func ClampPage(limit, offset int) (int, int) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxConversationLimit {
		limit = MaxConversationLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *AggregationService) policy(ctx context.Context) (*ExclusionPolicy, error) {
	if !s.opts.ExclusionFilters || s.exclusions == nil {
		return NewExclusionPolicy(nil), nil
	}
	return s.exclusions.Policy(ctx)
}

func (s *AggregationService) overlayDirectory(ctx context.Context, summaries map[string]*models.ContactSummary) error {
	if !s.opts.ContactDirectory || s.contacts == nil || len(summaries) == 0 {
		return nil
	}

	contacts, err := s.contacts.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}
	for _, contact := range contacts {
		summary, ok := summaries[contact.Phone]
		if !ok {
			continue
		}
		if contact.DisplayName != "" {
			name := contact.DisplayName
			summary.ClientName = &name
		}
		notes := contact.Notes
		summary.Notes = &notes
	}
	return nil
}
