package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/mseiser/SelfMemo2/internal/models"
)

// mysqlDuplicateEntry is the MySQL error number of a unique key violation
const mysqlDuplicateEntry = 1062

type scheduledReminderRepository struct {
	db *sql.DB
}

// NewScheduledReminderRepository creates a new scheduled reminder repository
func NewScheduledReminderRepository(db *sql.DB) *scheduledReminderRepository {
	return &scheduledReminderRepository{db: db}
}

// Create inserts a new scheduled reminder.
// A second row for the same reminder and timestamp fails with models.ErrDuplicateScheduledReminder.
func (r *scheduledReminderRepository) Create(ctx context.Context, event *models.ScheduledReminder) error {
	query := `
		INSERT INTO scheduled_reminders (reminder_id, timestamp, is_warning)
		VALUES (?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, event.ReminderID, event.Timestamp.Unix(), event.IsWarning)
	if err != nil {
		if isDuplicateKey(err) {
			return models.ErrDuplicateScheduledReminder
		}
		return fmt.Errorf("failed to create scheduled reminder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	event.ID = int(id)
	return nil
}

// GetByID retrieves a scheduled reminder by ID
func (r *scheduledReminderRepository) GetByID(ctx context.Context, id int) (*models.ScheduledReminder, error) {
	query := `
		SELECT id, reminder_id, timestamp, is_warning
		FROM scheduled_reminders
		WHERE id = ?
		LIMIT 1
	`

	event, err := scanScheduledReminder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrScheduledReminderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled reminder by ID: %w", err)
	}

	return event, nil
}

// GetByReminderIDAndTimestamp retrieves the scheduled reminder of a reminder at a timestamp
func (r *scheduledReminderRepository) GetByReminderIDAndTimestamp(ctx context.Context, reminderID int, timestamp time.Time) (*models.ScheduledReminder, error) {
	query := `
		SELECT id, reminder_id, timestamp, is_warning
		FROM scheduled_reminders
		WHERE reminder_id = ? AND timestamp = ?
		LIMIT 1
	`

	event, err := scanScheduledReminder(r.db.QueryRowContext(ctx, query, reminderID, timestamp.Unix()))
	if err == sql.ErrNoRows {
		return nil, models.ErrScheduledReminderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled reminder by reminder ID and timestamp: %w", err)
	}

	return event, nil
}

// GetAll retrieves all scheduled reminders ordered by timestamp
func (r *scheduledReminderRepository) GetAll(ctx context.Context) ([]models.ScheduledReminder, error) {
	query := `
		SELECT id, reminder_id, timestamp, is_warning
		FROM scheduled_reminders
		ORDER BY timestamp, id
	`
	return r.query(ctx, query)
}

// GetAllByReminderID retrieves the scheduled reminders of a reminder ordered by timestamp
func (r *scheduledReminderRepository) GetAllByReminderID(ctx context.Context, reminderID int) ([]models.ScheduledReminder, error) {
	query := `
		SELECT id, reminder_id, timestamp, is_warning
		FROM scheduled_reminders
		WHERE reminder_id = ?
		ORDER BY timestamp, id
	`
	return r.query(ctx, query, reminderID)
}

// GetInRange retrieves scheduled reminders with from <= timestamp < to
func (r *scheduledReminderRepository) GetInRange(ctx context.Context, from, to time.Time) ([]models.ScheduledReminder, error) {
	query := `
		SELECT id, reminder_id, timestamp, is_warning
		FROM scheduled_reminders
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp, id
	`
	return r.query(ctx, query, from.Unix(), to.Unix())
}

func (r *scheduledReminderRepository) query(ctx context.Context, query string, args ...any) ([]models.ScheduledReminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled reminders: %w", err)
	}
	defer rows.Close()

	var events []models.ScheduledReminder
	for rows.Next() {
		event, err := scanScheduledReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled reminder: %w", err)
		}
		events = append(events, *event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}

// GetUpcoming retrieves primary events from the given instant on, joined with their reminder.
// userID 0 selects the events of all users.
func (r *scheduledReminderRepository) GetUpcoming(ctx context.Context, userID int, from time.Time, limit int) ([]models.UpcomingEvent, error) {
	query := `
		SELECT s.id, s.reminder_id, s.timestamp, s.is_warning, r.name, r.description
		FROM scheduled_reminders s
		JOIN reminders r ON r.id = s.reminder_id
		WHERE s.is_warning = ? AND s.timestamp >= ? AND (? = 0 OR r.user_id = ?)
		ORDER BY s.timestamp, s.id
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, false, from.Unix(), userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming events: %w", err)
	}
	defer rows.Close()

	var events []models.UpcomingEvent
	for rows.Next() {
		var (
			event     models.UpcomingEvent
			timestamp int64
		)
		if err := rows.Scan(&event.ID, &event.ReminderID, &timestamp, &event.IsWarning,
			&event.ReminderName, &event.ReminderDescription); err != nil {
			return nil, fmt.Errorf("failed to scan upcoming event: %w", err)
		}
		event.Timestamp = time.Unix(timestamp, 0).UTC()
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}

// CountUpcoming counts events from the given instant on. userID 0 counts the events of all users.
func (r *scheduledReminderRepository) CountUpcoming(ctx context.Context, userID int, from time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM scheduled_reminders s
		JOIN reminders r ON r.id = s.reminder_id
		WHERE s.timestamp >= ? AND (? = 0 OR r.user_id = ?)
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, from.Unix(), userID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count upcoming events: %w", err)
	}

	return count, nil
}

// Delete removes a scheduled reminder and reports whether this call removed it.
// Concurrent callers race on the same row and exactly one of them observes true.
func (r *scheduledReminderRepository) Delete(ctx context.Context, id int) (bool, error) {
	query := `DELETE FROM scheduled_reminders WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete scheduled reminder: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// DeleteAllByReminderID deletes all scheduled reminders of a reminder and returns their IDs for Redis cleanup
func (r *scheduledReminderRepository) DeleteAllByReminderID(ctx context.Context, reminderID int) ([]int, error) {
	selectQuery := `SELECT id FROM scheduled_reminders WHERE reminder_id = ?`
	rows, err := r.db.QueryContext(ctx, selectQuery, reminderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled reminder IDs: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled reminder ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if len(ids) == 0 {
		return []int{}, nil
	}

	deleteQuery := `DELETE FROM scheduled_reminders WHERE reminder_id = ?`
	if _, err = r.db.ExecContext(ctx, deleteQuery, reminderID); err != nil {
		return nil, fmt.Errorf("failed to delete scheduled reminders: %w", err)
	}

	return ids, nil
}

func scanScheduledReminder(row rowScanner) (*models.ScheduledReminder, error) {
	var (
		event     models.ScheduledReminder
		timestamp int64
	)
	if err := row.Scan(&event.ID, &event.ReminderID, &timestamp, &event.IsWarning); err != nil {
		return nil, err
	}
	event.Timestamp = time.Unix(timestamp, 0).UTC()
	return &event, nil
}

// isDuplicateKey reports whether err is a unique constraint violation of either supported driver
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
