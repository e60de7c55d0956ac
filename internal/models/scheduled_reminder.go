package models

import "time"

// ScheduledReminder is a materialized occurrence of a reminder waiting to be dispatched
type ScheduledReminder struct {
	ID         int       `json:"id"`
	ReminderID int       `json:"reminder_id"`
	Timestamp  time.Time `json:"timestamp"`
	IsWarning  bool      `json:"is_warning"`
}

// UpcomingEvent is a scheduled reminder joined with its reminder for calendar export
type UpcomingEvent struct {
	ScheduledReminder
	ReminderName        string
	ReminderDescription string
}
