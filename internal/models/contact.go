package models

import "time"

// Contact is a directory override for a phone, independent of message history.
type Contact struct {
	Phone       string    `json:"phone"`
	DisplayName string    `json:"display_name"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpsertContactRequest replaces the override for a phone.
type UpsertContactRequest struct {
	DisplayName string `json:"display_name"`
	Notes       string `json:"notes"`
}

// AutomationFlag records whether automated replies are on for a phone.
// A phone without a record is enabled.
type AutomationFlag struct {
	Phone     string    `json:"phone"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AutomationStatus is the API view of an automation flag.
type AutomationStatus struct {
	Phone             string `json:"phone"`
	AutomationEnabled bool   `json:"automation_enabled"`
}

// AutomationUpdate toggles automation for a phone.
type AutomationUpdate struct {
	AutomationEnabled *bool `json:"automation_enabled" binding:"required"`
}

// AlertFlag records whether a phone needs operator attention.
// A phone without a record has no alert.
type AlertFlag struct {
	Phone     string    `json:"phone"`
	HasAlert  bool      `json:"has_alert"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AlertUpdate sets the alert state; a missing has_alert raises the alert.
type AlertUpdate struct {
	HasAlert *bool `json:"has_alert"`
}

// SessionStatus reports whether the inbound messaging window is open.
type SessionStatus struct {
	Phone         string     `json:"phone"`
	SessionActive bool       `json:"session_active"`
	LastInboundAt *time.Time `json:"last_inbound_at,omitempty"`
}
