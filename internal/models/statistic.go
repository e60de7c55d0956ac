package models

// DashboardStatistics summarizes the reminders of a user
type DashboardStatistics struct {
	TotalReminders        int     `json:"total_reminders"`
	DisabledReminders     int     `json:"disabled_reminders"`
	RemindersWithWarnings int     `json:"reminders_with_warnings"`
	AverageWarnings       float64 `json:"average_warnings"`
	PendingEvents         int     `json:"pending_events"`
	SentToday             int     `json:"sent_today"`
}
