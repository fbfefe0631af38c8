package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Direction is the role of a message author.
type Direction string

const (
	DirectionUser      Direction = "user"
	DirectionBot       Direction = "bot"
	DirectionDashboard Direction = "dashboard"
)

// DeliveryStatus is the provider-reported lifecycle state of an outbound message.
type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryQueued    DeliveryStatus = "queued"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRead      DeliveryStatus = "read"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Valid reports whether s is one of the known delivery states.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliverySent, DeliveryQueued, DeliveryDelivered, DeliveryRead, DeliveryFailed:
		return true
	}
	return false
}

// MessageOrder selects the sort key for per-phone listings.
type MessageOrder int

const (
	OrderByTimestamp MessageOrder = iota
	OrderByID
)

// Message is a single logged chat message.
type Message struct {
	ID                int64           `json:"id"`
	Phone             string          `json:"phone"`
	ClientName        *string         `json:"client_name"`
	Direction         Direction       `json:"direction"`
	Body              string          `json:"message"`
	MediaURL          *string         `json:"media_url"`
	AutomationTag     *string         `json:"automation"`
	ProviderMessageID *string         `json:"provider_message_id"`
	Timestamp         time.Time       `json:"timestamp"`
	FollowUpNeeded    bool            `json:"follow_up_needed"`
	HandledBy         *string         `json:"handled_by"`
	Notes             *string         `json:"notes"`
	DeliveryStatus    *DeliveryStatus `json:"delivery_status"`
}

// MessagePatch carries the mutable fields of a message. Nil fields are left untouched.
type MessagePatch struct {
	FollowUpNeeded *bool   `json:"follow_up_needed"`
	HandledBy      *string `json:"handled_by"`
	Notes          *string `json:"notes"`
}

// Empty reports whether the patch changes nothing.
func (p MessagePatch) Empty() bool {
	return p.FollowUpNeeded == nil && p.HandledBy == nil && p.Notes == nil
}

// LogMessageRequest is an inbound or automated outbound message from the
// ingestion pipeline.
type LogMessageRequest struct {
	Phone             string     `json:"phone" binding:"required"`
	ClientName        *string    `json:"client_name"`
	Direction         string     `json:"direction" binding:"required"`
	Message           string     `json:"message" binding:"required"`
	MediaURL          *string    `json:"media_url"`
	Automation        *string    `json:"automation"`
	Timestamp         *time.Time `json:"timestamp"`
	FollowUpNeeded    *bool      `json:"follow_up_needed"`
	ProviderMessageID *string    `json:"provider_message_id"`
}

// UnmarshalJSON accepts any layout in TimeLayouts for timestamp. Values
// without a zone are UTC.
func (r *LogMessageRequest) UnmarshalJSON(data []byte) error {
	type plain LogMessageRequest
	aux := struct {
		*plain
		Timestamp *string `json:"timestamp"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Timestamp = nil
	if aux.Timestamp == nil || strings.TrimSpace(*aux.Timestamp) == "" {
		return nil
	}
	ts, ok := ParseTimestamp(*aux.Timestamp)
	if !ok {
		return fmt.Errorf("invalid timestamp %q", *aux.Timestamp)
	}
	r.Timestamp = &ts
	return nil
}

// DashboardMessageRequest is a reply typed by a dashboard operator.
// Direction is accepted for backward compatibility and ignored.
type DashboardMessageRequest struct {
	Phone             string  `json:"phone" binding:"required"`
	Message           string  `json:"message" binding:"required"`
	Timestamp         string  `json:"timestamp" binding:"required"`
	Direction         *string `json:"direction"`
	FollowUpNeeded    *bool   `json:"follow_up_needed"`
	Notes             *string `json:"notes"`
	HandledBy         *string `json:"handled_by"`
	ProviderMessageID *string `json:"provider_message_id"`
}

// ContactSummary is the derived per-phone view shown in the contact list.
type ContactSummary struct {
	Phone         string    `json:"phone"`
	ClientName    *string   `json:"client_name"`
	LastMessage   string    `json:"last_message"`
	LastTime      time.Time `json:"last_time"`
	LastDirection Direction `json:"last_direction"`
	FollowUpOpen  bool      `json:"follow_up_open"`
	Notes         *string   `json:"notes"`
}

// DeleteResponse reports the outcome of a delete.
type DeleteResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount *int64 `json:"deleted_count,omitempty"`
}

// TimeLayouts are tried in order when parsing client timestamps.
var TimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses raw with the first matching layout and returns it in UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range TimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
