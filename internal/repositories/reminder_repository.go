package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mseiser/SelfMemo2/internal/models"
	"github.com/mseiser/SelfMemo2/internal/recurrence"
)

const reminderColumns = `id, user_id, name, description, type, config, is_disabled, last_sent,
		has_warnings, warning_number, warning_interval, warning_interval_number, created_at, updated_at`

type reminderRepository struct {
	db *sql.DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *sql.DB) *reminderRepository {
	return &reminderRepository{db: db}
}

// Create inserts a new reminder
func (r *reminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	query := `
		INSERT INTO reminders (user_id, name, description, type, config, is_disabled,
			has_warnings, warning_number, warning_interval, warning_interval_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	number, interval, intervalNumber := warningArgs(reminder)
	result, err := r.db.ExecContext(ctx, query,
		reminder.UserID, reminder.Name, reminder.Description, string(reminder.Type), string(reminder.Config),
		reminder.IsDisabled, reminder.HasWarnings, number, interval, intervalNumber,
		reminder.CreatedAt.Unix(), reminder.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	reminder.ID = int(id)
	return nil
}

// GetByID retrieves a reminder by ID
func (r *reminderRepository) GetByID(ctx context.Context, id int) (*models.Reminder, error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders
		WHERE id = ?
		LIMIT 1
	`

	reminder, err := scanReminder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrReminderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder by ID: %w", err)
	}

	return reminder, nil
}

// GetAll retrieves all reminders
func (r *reminderRepository) GetAll(ctx context.Context) ([]models.Reminder, error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders
		ORDER BY id
	`
	return r.query(ctx, query)
}

// GetAllByUserID retrieves all reminders of a user
func (r *reminderRepository) GetAllByUserID(ctx context.Context, userID int) ([]models.Reminder, error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders
		WHERE user_id = ?
		ORDER BY id
	`
	return r.query(ctx, query, userID)
}

func (r *reminderRepository) query(ctx context.Context, query string, args ...any) ([]models.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, *reminder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return reminders, nil
}

// Update replaces all user-editable fields of a reminder
func (r *reminderRepository) Update(ctx context.Context, reminder *models.Reminder) error {
	query := `
		UPDATE reminders
		SET name = ?, description = ?, type = ?, config = ?, is_disabled = ?,
			has_warnings = ?, warning_number = ?, warning_interval = ?, warning_interval_number = ?, updated_at = ?
		WHERE id = ?
	`

	number, interval, intervalNumber := warningArgs(reminder)
	// MySQL reports zero affected rows for unchanged values, so existence is checked by the caller
	if _, err := r.db.ExecContext(ctx, query,
		reminder.Name, reminder.Description, string(reminder.Type), string(reminder.Config), reminder.IsDisabled,
		reminder.HasWarnings, number, interval, intervalNumber, reminder.UpdatedAt.Unix(), reminder.ID); err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}

	return nil
}

// UpdateLastSent sets the instant of the most recent primary notification
func (r *reminderRepository) UpdateLastSent(ctx context.Context, id int, lastSent time.Time) error {
	query := `UPDATE reminders SET last_sent = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, lastSent.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update last_sent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrReminderNotFound
	}

	return nil
}

// Delete deletes a reminder by ID
func (r *reminderRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM reminders WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrReminderNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*models.Reminder, error) {
	var (
		reminder       models.Reminder
		kind, config   string
		lastSent       sql.NullInt64
		number         sql.NullInt64
		interval       sql.NullString
		intervalNumber sql.NullInt64
		createdAt      int64
		updatedAt      int64
	)

	if err := row.Scan(
		&reminder.ID,
		&reminder.UserID,
		&reminder.Name,
		&reminder.Description,
		&kind,
		&config,
		&reminder.IsDisabled,
		&lastSent,
		&reminder.HasWarnings,
		&number,
		&interval,
		&intervalNumber,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	reminder.Type = recurrence.Kind(kind)
	reminder.Config = []byte(config)
	if lastSent.Valid {
		t := time.Unix(lastSent.Int64, 0).UTC()
		reminder.LastSent = &t
	}
	reminder.WarningNumber = int(number.Int64)
	reminder.WarningInterval = interval.String
	reminder.WarningIntervalNumber = int(intervalNumber.Int64)
	reminder.CreatedAt = time.Unix(createdAt, 0).UTC()
	reminder.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &reminder, nil
}

// warningArgs returns the warning columns, all NULL when the reminder has no warnings
func warningArgs(reminder *models.Reminder) (any, any, any) {
	if !reminder.HasWarnings {
		return nil, nil, nil
	}
	return reminder.WarningNumber, reminder.WarningInterval, reminder.WarningIntervalNumber
}
