package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mseiser/SelfMemo2/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultDispatchWorkers = 10

// DispatchReminderRepository resolves the reminder of a due event
type DispatchReminderRepository interface {
	GetByID(ctx context.Context, id int) (*models.Reminder, error)
}

// DispatchScheduledReminderRepository finds and claims due events
type DispatchScheduledReminderRepository interface {
	GetByID(ctx context.Context, id int) (*models.ScheduledReminder, error)
	GetInRange(ctx context.Context, from, to time.Time) ([]models.ScheduledReminder, error)
	// Delete reports true only to the one caller that removed the row
	Delete(ctx context.Context, id int) (bool, error)
}

// Materializer schedules the next cycle of a reminder
type Materializer interface {
	Materialize(ctx context.Context, reminder *models.Reminder, reference time.Time) ([]models.ScheduledReminder, error)
}

// Notifier delivers a claimed event
type Notifier interface {
	Notify(ctx context.Context, reminder *models.Reminder, event *models.ScheduledReminder, now time.Time) error
}

// DispatchOptions tunes a dispatcher pass
type DispatchOptions struct {
	// Workers bounds the number of concurrent notifications
	Workers int
	// CatchUp also dispatches events of the last CatchUp before the current minute
	CatchUp time.Duration
	// Location defines minute boundaries
	Location *time.Location
}

type dispatchService struct {
	reminderRepo DispatchReminderRepository
	eventRepo    DispatchScheduledReminderRepository
	materializer Materializer
	notifier     Notifier
	index        DueIndex
	opts         DispatchOptions
	logger       *zap.Logger
}

// NewDispatchService creates the dispatcher of due scheduled reminders.
// index may be nil.
func NewDispatchService(
	reminderRepo DispatchReminderRepository,
	eventRepo DispatchScheduledReminderRepository,
	materializer Materializer,
	notifier Notifier,
	index DueIndex,
	opts DispatchOptions,
	logger *zap.Logger,
) *dispatchService {
	if opts.Workers <= 0 {
		opts.Workers = defaultDispatchWorkers
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &dispatchService{
		reminderRepo: reminderRepo,
		eventRepo:    eventRepo,
		materializer: materializer,
		notifier:     notifier,
		index:        index,
		opts:         opts,
		logger:       logger,
	}
}

// Dispatch runs one pass for the minute containing now.
//
// An event is due when its timestamp falls in the same calendar minute as now, or inside the
// catch-up window before it. Due events are fired concurrently with at most Workers sends in
// flight. Each event is claimed by deleting it before the send, so overlapping passes never
// send the same event twice.
//
// Events older than the catch-up window missed their tick. They are claimed without a send and
// a missed primary of a repeating rule schedules the cycle after the current minute.
func (s *dispatchService) Dispatch(ctx context.Context, now time.Time) (*models.DispatchReport, error) {
	minute := truncateToMinute(now.In(s.opts.Location))
	from := minute.Add(-s.opts.CatchUp)

	events, err := s.eventRepo.GetInRange(ctx, time.Unix(0, 0), minute.Add(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to load due scheduled reminders: %w", err)
	}

	var due, missed []models.ScheduledReminder
	for _, event := range events {
		if s.isDue(event.Timestamp, minute, from) {
			due = append(due, event)
		} else {
			missed = append(missed, event)
		}
	}

	outcomes := make([]models.DispatchOutcome, len(due))
	missedOutcomes := make([]*models.DispatchOutcome, len(missed))
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i := range due {
		g.Go(func() error {
			outcomes[i] = s.fire(ctx, due[i], minute)
			return nil
		})
	}
	for i := range missed {
		g.Go(func() error {
			missedOutcomes[i] = s.discard(ctx, missed[i], minute)
			return nil
		})
	}
	g.Wait()

	report := &models.DispatchReport{At: minute, Due: len(due), Outcomes: []models.DispatchOutcome{}}
	for _, outcome := range outcomes {
		report.Add(outcome)
	}
	for _, outcome := range missedOutcomes {
		if outcome != nil {
			report.Add(*outcome)
		}
	}

	s.logger.Info("Dispatch pass finished",
		zap.Time("minute", minute),
		zap.Int("due", report.Due),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Int("missed", report.Missed))

	return report, nil
}

// Fire dispatches a single scheduled reminder if it is due at now.
// A missing event was already claimed by another pass and is reported as such.
func (s *dispatchService) Fire(ctx context.Context, id int, now time.Time) (*models.DispatchReport, error) {
	report := &models.DispatchReport{At: now, Outcomes: []models.DispatchOutcome{}}

	event, err := s.eventRepo.GetByID(ctx, id)
	if errors.Is(err, models.ErrScheduledReminderNotFound) {
		report.Add(models.DispatchOutcome{ScheduledReminderID: id, Status: models.DispatchStatusClaimedElsewhere})
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled reminder: %w", err)
	}

	if event.Timestamp.After(now) {
		report.Add(models.DispatchOutcome{
			ScheduledReminderID: event.ID,
			ReminderID:          event.ReminderID,
			IsWarning:           event.IsWarning,
			Status:              models.DispatchStatusNotDue,
		})
		return report, nil
	}

	report.Due = 1
	report.Add(s.fire(ctx, *event, now))
	return report, nil
}

func (s *dispatchService) isDue(timestamp, minute, from time.Time) bool {
	if sameMinute(timestamp.In(s.opts.Location), minute) {
		return true
	}
	return !timestamp.Before(from) && timestamp.Before(minute)
}

// fire handles one due event: orphans are discarded, disabled reminders keep their event,
// everything else is claimed, sent and followed by the next cycle of a repeating rule
func (s *dispatchService) fire(ctx context.Context, event models.ScheduledReminder, now time.Time) models.DispatchOutcome {
	outcome := models.DispatchOutcome{
		ScheduledReminderID: event.ID,
		ReminderID:          event.ReminderID,
		IsWarning:           event.IsWarning,
	}
	fields := []zap.Field{
		zap.Int("scheduled_reminder_id", event.ID),
		zap.Int("reminder_id", event.ReminderID),
		zap.Time("timestamp", event.Timestamp),
		zap.Bool("is_warning", event.IsWarning),
	}

	reminder, err := s.reminderRepo.GetByID(ctx, event.ReminderID)
	if errors.Is(err, models.ErrReminderNotFound) {
		if _, err := s.claim(ctx, event.ID); err != nil {
			s.logger.Error("Failed to discard orphaned scheduled reminder", append(fields, zap.Error(err))...)
		} else {
			s.logger.Warn("Discarded orphaned scheduled reminder", fields...)
		}
		outcome.Status = models.DispatchStatusOrphaned
		return outcome
	}
	if err != nil {
		s.logger.Error("Failed to get reminder of scheduled reminder", append(fields, zap.Error(err))...)
		outcome.Status = models.DispatchStatusFailed
		outcome.Error = err.Error()
		return outcome
	}

	if reminder.IsDisabled {
		s.logger.Debug("Skipping scheduled reminder of disabled reminder", fields...)
		outcome.Status = models.DispatchStatusDisabled
		return outcome
	}

	claimed, err := s.claim(ctx, event.ID)
	if err != nil {
		s.logger.Error("Failed to claim scheduled reminder", append(fields, zap.Error(err))...)
		outcome.Status = models.DispatchStatusFailed
		outcome.Error = err.Error()
		return outcome
	}
	if !claimed {
		outcome.Status = models.DispatchStatusClaimedElsewhere
		return outcome
	}

	err = s.notifier.Notify(ctx, reminder, &event, now)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		outcome.Status = models.DispatchStatusNoRecipient
	case err != nil:
		s.logger.Error("Failed to send notification", append(fields, zap.Error(err))...)
		outcome.Status = models.DispatchStatusFailed
		outcome.Error = err.Error()
	default:
		s.logger.Info("Notification sent", fields...)
		outcome.Status = models.DispatchStatusSent
	}

	if !event.IsWarning {
		reference := event.Timestamp
		if now.After(reference) {
			reference = now
		}
		outcome.Regenerated = s.scheduleNext(ctx, reminder, reference, fields)
	}

	return outcome
}

// discard consumes an event that missed its tick without sending it.
// Events of disabled reminders are kept and left out of the report.
func (s *dispatchService) discard(ctx context.Context, event models.ScheduledReminder, minute time.Time) *models.DispatchOutcome {
	outcome := &models.DispatchOutcome{
		ScheduledReminderID: event.ID,
		ReminderID:          event.ReminderID,
		IsWarning:           event.IsWarning,
	}
	fields := []zap.Field{
		zap.Int("scheduled_reminder_id", event.ID),
		zap.Int("reminder_id", event.ReminderID),
		zap.Time("timestamp", event.Timestamp),
		zap.Bool("is_warning", event.IsWarning),
	}

	reminder, err := s.reminderRepo.GetByID(ctx, event.ReminderID)
	switch {
	case errors.Is(err, models.ErrReminderNotFound):
		outcome.Status = models.DispatchStatusOrphaned
		if _, err := s.claim(ctx, event.ID); err != nil {
			s.logger.Error("Failed to discard orphaned scheduled reminder", append(fields, zap.Error(err))...)
		} else {
			s.logger.Warn("Discarded orphaned scheduled reminder", fields...)
		}
		return outcome
	case err != nil:
		s.logger.Error("Failed to get reminder of missed scheduled reminder", append(fields, zap.Error(err))...)
		outcome.Status = models.DispatchStatusFailed
		outcome.Error = err.Error()
		return outcome
	case reminder.IsDisabled:
		return nil
	}

	claimed, err := s.claim(ctx, event.ID)
	if err != nil {
		s.logger.Error("Failed to claim missed scheduled reminder", append(fields, zap.Error(err))...)
		outcome.Status = models.DispatchStatusFailed
		outcome.Error = err.Error()
		return outcome
	}
	if !claimed {
		outcome.Status = models.DispatchStatusClaimedElsewhere
		return outcome
	}

	s.logger.Warn("Discarded missed scheduled reminder", fields...)
	outcome.Status = models.DispatchStatusMissed
	if !event.IsWarning {
		outcome.Regenerated = s.scheduleNext(ctx, reminder, minute, fields)
	}
	return outcome
}

// scheduleNext materializes the cycle after reference for repeating rules
func (s *dispatchService) scheduleNext(ctx context.Context, reminder *models.Reminder, reference time.Time, fields []zap.Field) bool {
	if !reminder.Type.Repeats() {
		return false
	}
	if _, err := s.materializer.Materialize(ctx, reminder, reference); err != nil {
		s.logger.Warn("Failed to schedule next cycle", append(fields, zap.Error(err))...)
		return false
	}
	return true
}

// claim deletes the event and reports whether this call owns it
func (s *dispatchService) claim(ctx context.Context, id int) (bool, error) {
	claimed, err := s.eventRepo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if claimed && s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			s.logger.Warn("Failed to remove scheduled reminder from index",
				zap.Int("scheduled_reminder_id", id),
				zap.Error(err))
		}
	}
	return claimed, nil
}

func truncateToMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// sameMinute compares calendar fields down to the minute
func sameMinute(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd && a.Hour() == b.Hour() && a.Minute() == b.Minute()
}
