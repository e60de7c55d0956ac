package models

import (
	"encoding/json"
	"time"

	"github.com/mseiser/SelfMemo2/internal/recurrence"
)

// Reminder represents a user-defined recurring or one-time reminder
type Reminder struct {
	ID                    int             `json:"id"`
	UserID                int             `json:"user_id"`
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	Type                  recurrence.Kind `json:"type"`
	Config                json.RawMessage `json:"config" swaggertype:"object"`
	IsDisabled            bool            `json:"is_disabled"`
	LastSent              *time.Time      `json:"last_sent,omitempty"`
	HasWarnings           bool            `json:"has_warnings"`
	WarningNumber         int             `json:"warning_number,omitempty"`
	WarningInterval       string          `json:"warning_interval,omitempty"`
	WarningIntervalNumber int             `json:"warning_interval_number,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// Rule decodes the reminder config into its typed recurrence rule
func (r *Reminder) Rule() (recurrence.Rule, error) {
	return recurrence.Parse(r.Type, r.Config)
}

// Warnings returns the warning configuration, nil when the reminder has none
func (r *Reminder) Warnings() *recurrence.Warnings {
	if !r.HasWarnings {
		return nil
	}
	return &recurrence.Warnings{
		Count: r.WarningNumber,
		Unit:  recurrence.WarningUnit(r.WarningInterval),
		Every: r.WarningIntervalNumber,
	}
}

// ReminderRequest represents a request to create or replace a reminder
type ReminderRequest struct {
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	Type                  string          `json:"type"`
	Config                json.RawMessage `json:"config" swaggertype:"object"`
	IsDisabled            bool            `json:"is_disabled"`
	WarningNumber         *int            `json:"warning_number,omitempty"`
	WarningInterval       *string         `json:"warning_interval,omitempty"`
	WarningIntervalNumber *int            `json:"warning_interval_number,omitempty"`
}

// ReminderListItem represents a reminder in a list response
type ReminderListItem struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Type       recurrence.Kind `json:"type"`
	Schedule   string          `json:"schedule"`
	IsDisabled bool            `json:"is_disabled"`
	LastSent   *time.Time      `json:"last_sent,omitempty"`
}
