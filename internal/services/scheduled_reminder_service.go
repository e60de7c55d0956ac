package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mseiser/SelfMemo2/internal/models"
	"github.com/mseiser/SelfMemo2/internal/recurrence"
	"go.uber.org/zap"
)

// ScheduledReminderRepository is the persistence of materialized events used by the materializer
type ScheduledReminderRepository interface {
	Create(ctx context.Context, event *models.ScheduledReminder) error
	GetByReminderIDAndTimestamp(ctx context.Context, reminderID int, timestamp time.Time) (*models.ScheduledReminder, error)
	GetAllByReminderID(ctx context.Context, reminderID int) ([]models.ScheduledReminder, error)
	DeleteAllByReminderID(ctx context.Context, reminderID int) ([]int, error)
}

// DueIndex mirrors scheduled reminders into the scheduler's index.
// The database stays authoritative, so index failures are logged and never returned.
type DueIndex interface {
	Add(ctx context.Context, id int, at time.Time) error
	Remove(ctx context.Context, ids ...int) error
}

type scheduledReminderService struct {
	repo     ScheduledReminderRepository
	index    DueIndex
	location *time.Location
	logger   *zap.Logger
}

// NewScheduledReminderService creates the materializer of scheduled reminders.
// index may be nil when no scheduler process consumes it.
func NewScheduledReminderService(repo ScheduledReminderRepository, index DueIndex, location *time.Location, logger *zap.Logger) *scheduledReminderService {
	if location == nil {
		location = time.UTC
	}
	return &scheduledReminderService{
		repo:     repo,
		index:    index,
		location: location,
		logger:   logger,
	}
}

// Materialize persists the next cycle of a reminder computed from the reference instant.
//
// Every occurrence is created at most once per (reminder, timestamp): existing rows are skipped,
// and a concurrent insert losing the race on the unique index is skipped as well.
// Disabled reminders are not materialized. A misconfigured rule is logged and returned
// as an error wrapping recurrence.ErrMisconfigured.
//
// It returns the events created by this call.
func (s *scheduledReminderService) Materialize(ctx context.Context, reminder *models.Reminder, reference time.Time) ([]models.ScheduledReminder, error) {
	if reminder.IsDisabled {
		return nil, nil
	}

	rule, err := reminder.Rule()
	if err != nil {
		s.logger.Warn("Skipping misconfigured reminder",
			zap.Int("reminder_id", reminder.ID),
			zap.Error(err))
		return nil, err
	}

	occurrences, err := recurrence.Occurrences(rule, reference.In(s.location), recurrence.Options{
		Warnings:  reminder.Warnings(),
		CreatedAt: reminder.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("Skipping misconfigured reminder",
			zap.Int("reminder_id", reminder.ID),
			zap.Error(err))
		return nil, err
	}

	var created []models.ScheduledReminder
	for _, occurrence := range occurrences {
		at := occurrence.At.Truncate(time.Minute).UTC()

		_, err := s.repo.GetByReminderIDAndTimestamp(ctx, reminder.ID, at)
		if err == nil {
			continue
		}
		if !errors.Is(err, models.ErrScheduledReminderNotFound) {
			return created, fmt.Errorf("failed to check scheduled reminder: %w", err)
		}

		event := &models.ScheduledReminder{
			ReminderID: reminder.ID,
			Timestamp:  at,
			IsWarning:  occurrence.IsWarning,
		}
		if err := s.repo.Create(ctx, event); err != nil {
			if errors.Is(err, models.ErrDuplicateScheduledReminder) {
				continue
			}
			return created, fmt.Errorf("failed to create scheduled reminder: %w", err)
		}

		if s.index != nil {
			if err := s.index.Add(ctx, event.ID, event.Timestamp); err != nil {
				s.logger.Error("Failed to index scheduled reminder",
					zap.Int("scheduled_reminder_id", event.ID),
					zap.Error(err))
			}
		}
		created = append(created, *event)
	}

	if len(created) > 0 {
		s.logger.Debug("Materialized scheduled reminders",
			zap.Int("reminder_id", reminder.ID),
			zap.Int("count", len(created)))
	}

	return created, nil
}

// MaterializeAll materializes every reminder and returns the number of created events.
// Misconfigured reminders are skipped so that one broken rule never stops the batch.
func (s *scheduledReminderService) MaterializeAll(ctx context.Context, reminders []models.Reminder, reference time.Time) (int, error) {
	total := 0
	for i := range reminders {
		created, err := s.Materialize(ctx, &reminders[i], reference)
		total += len(created)
		if err != nil {
			if errors.Is(err, recurrence.ErrMisconfigured) {
				continue
			}
			return total, err
		}
	}
	return total, nil
}

// Rebuild deletes every scheduled reminder of a reminder and materializes its rule again
func (s *scheduledReminderService) Rebuild(ctx context.Context, reminder *models.Reminder, reference time.Time) ([]models.ScheduledReminder, error) {
	if err := s.Purge(ctx, reminder.ID); err != nil {
		return nil, err
	}
	return s.Materialize(ctx, reminder, reference)
}

// Purge deletes every scheduled reminder of a reminder
func (s *scheduledReminderService) Purge(ctx context.Context, reminderID int) error {
	ids, err := s.repo.DeleteAllByReminderID(ctx, reminderID)
	if err != nil {
		return fmt.Errorf("failed to purge scheduled reminders: %w", err)
	}

	if s.index != nil && len(ids) > 0 {
		if err := s.index.Remove(ctx, ids...); err != nil {
			s.logger.Error("Failed to remove scheduled reminders from index",
				zap.Int("reminder_id", reminderID),
				zap.Error(err))
		}
	}

	return nil
}

// Scheduled lists the pending events of a reminder ordered by timestamp
func (s *scheduledReminderService) Scheduled(ctx context.Context, reminderID int) ([]models.ScheduledReminder, error) {
	events, err := s.repo.GetAllByReminderID(ctx, reminderID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.ScheduledReminder{}
	}
	return events, nil
}
