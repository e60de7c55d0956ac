package models

import "time"

// DispatchStatus is the outcome of a single due event
type DispatchStatus string

const (
	DispatchStatusSent             DispatchStatus = "sent"
	DispatchStatusFailed           DispatchStatus = "failed"
	DispatchStatusDisabled         DispatchStatus = "disabled"
	DispatchStatusOrphaned         DispatchStatus = "orphaned"
	DispatchStatusClaimedElsewhere DispatchStatus = "claimed_elsewhere"
	DispatchStatusNotDue           DispatchStatus = "not_due"
	DispatchStatusMissed           DispatchStatus = "missed"
	DispatchStatusNoRecipient      DispatchStatus = "no_recipient"
)

// DispatchOutcome records what happened to one due event
type DispatchOutcome struct {
	ScheduledReminderID int            `json:"scheduled_reminder_id"`
	ReminderID          int            `json:"reminder_id"`
	IsWarning           bool           `json:"is_warning"`
	Status              DispatchStatus `json:"status"`
	Regenerated         bool           `json:"regenerated,omitempty"`
	Error               string         `json:"error,omitempty"`
}

// DispatchReport summarizes one dispatcher pass
type DispatchReport struct {
	At       time.Time         `json:"at"`
	Due      int               `json:"due"`
	Sent     int               `json:"sent"`
	Failed   int               `json:"failed"`
	Skipped  int               `json:"skipped"`
	Missed   int               `json:"missed"`
	Outcomes []DispatchOutcome `json:"outcomes"`
}

// Add records an outcome and updates the counters
func (r *DispatchReport) Add(outcome DispatchOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
	switch outcome.Status {
	case DispatchStatusSent:
		r.Sent++
	case DispatchStatusFailed:
		r.Failed++
	case DispatchStatusMissed:
		r.Missed++
	default:
		r.Skipped++
	}
}
