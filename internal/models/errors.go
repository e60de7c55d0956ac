package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrReminderNotFound           = errors.New("reminder not found")
	ErrScheduledReminderNotFound  = errors.New("scheduled reminder not found")
	ErrUserNotFound               = errors.New("user not found")
	ErrEmailTemplateNotFound      = errors.New("email template not found")
	ErrDuplicateScheduledReminder = errors.New("scheduled reminder already exists")
	ErrForbidden                  = errors.New("access to reminder denied")
)

// ValidationError carries field-level validation messages
type ValidationError struct {
	Fields map[string]string `json:"errors"`
}

// NewValidationError creates an empty validation error
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Add records a message for a field, keeping the first one
func (e *ValidationError) Add(field, message string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed validation
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
