package models

import "time"

const (
	// TemplateSlugReminder is the template of primary notifications
	TemplateSlugReminder = "reminder"
	// TemplateSlugWarning is the template of warning notifications
	TemplateSlugWarning = "warning"
)

// EmailTemplate represents an email template
type EmailTemplate struct {
	ID              int       `json:"id"`
	Slug            string    `json:"slug"`
	SubjectTemplate string    `json:"subject_template"`
	BodyTemplate    string    `json:"body_template"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// EmailTemplateParts holds the subject and body of a template
type EmailTemplateParts struct {
	SubjectTemplate string `json:"subject_template"`
	BodyTemplate    string `json:"body_template"`
}
