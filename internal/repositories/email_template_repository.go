package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mseiser/SelfMemo2/internal/models"
)

type emailTemplateRepository struct {
	db *sql.DB
}

// NewEmailTemplateRepository creates a new email template repository
func NewEmailTemplateRepository(db *sql.DB) *emailTemplateRepository {
	return &emailTemplateRepository{db: db}
}

// Create inserts a new email template
func (r *emailTemplateRepository) Create(ctx context.Context, template *models.EmailTemplate) error {
	query := `
		INSERT INTO email_templates (slug, subject_template, body_template, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	now := time.Now().Unix()
	result, err := r.db.ExecContext(ctx, query, template.Slug, template.SubjectTemplate, template.BodyTemplate, now, now)
	if err != nil {
		return fmt.Errorf("failed to create email template: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	template.ID = int(id)
	return nil
}

// GetTemplateBySlug retrieves the subject and body of an email template by its slug
func (r *emailTemplateRepository) GetTemplateBySlug(ctx context.Context, slug string) (*models.EmailTemplateParts, error) {
	query := `
		SELECT subject_template, body_template
		FROM email_templates
		WHERE slug = ?
		LIMIT 1
	`

	parts := &models.EmailTemplateParts{}
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&parts.SubjectTemplate, &parts.BodyTemplate)
	if err == sql.ErrNoRows {
		return nil, models.ErrEmailTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email template by slug: %w", err)
	}

	return parts, nil
}
