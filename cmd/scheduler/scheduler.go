package main

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/mseiser/SelfMemo2/internal/models"
	"github.com/mseiser/SelfMemo2/internal/tasks"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// populateWindow is how far ahead scheduled reminders are mirrored into the due index
const populateWindow = 24 * time.Hour

// DueIndex is the Redis mirror of upcoming scheduled reminders
type DueIndex interface {
	Add(ctx context.Context, id int, at time.Time) error
	Remove(ctx context.Context, ids ...int) error
	Count(ctx context.Context) (int64, error)
	Due(ctx context.Context, now time.Time) ([]int, error)
}

// ScheduledReminderRepository reads scheduled reminders from the database
type ScheduledReminderRepository interface {
	GetAll(ctx context.Context) ([]models.ScheduledReminder, error)
	GetInRange(ctx context.Context, from, to time.Time) ([]models.ScheduledReminder, error)
}

// TaskEnqueuer enqueues asynq tasks
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler is the minute clock of the reminder engine
type Scheduler struct {
	index  DueIndex
	repo   ScheduledReminderRepository
	client TaskEnqueuer
	cron   *cron.Cron
	now    func() time.Time
	logger *zap.Logger
}

// NewScheduler creates a new scheduler instance
func NewScheduler(index DueIndex, repo ScheduledReminderRepository, client TaskEnqueuer, location *time.Location, logger *zap.Logger) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	return &Scheduler{
		index:  index,
		repo:   repo,
		client: client,
		cron:   cron.New(cron.WithLocation(location)),
		now:    time.Now,
		logger: logger,
	}
}

// Start runs a tick immediately and then at the start of every minute
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("* * * * *", func() { s.tick(ctx) }); err != nil {
		return err
	}
	s.tick(ctx)
	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the clock and waits for a running tick
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()
	s.restoreIndex(ctx)
	s.populateIndex(ctx, now)
	s.enqueueDispatch(now)
	s.enqueueDue(ctx, now)
}

// restoreIndex refills an empty index, e.g. after a Redis restart, from the database
func (s *Scheduler) restoreIndex(ctx context.Context) {
	card, err := s.index.Count(ctx)
	if err != nil {
		s.logger.Error("Failed to check due index cardinality", zap.Error(err))
		return
	}
	if card > 0 {
		return
	}

	events, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("Failed to get scheduled reminders for restore", zap.Error(err))
		return
	}

	restored := s.add(ctx, events)
	if restored > 0 {
		s.logger.Info("Restored due index", zap.Int("count", restored))
	}
}

// populateIndex mirrors the scheduled reminders of the next 24 hours
func (s *Scheduler) populateIndex(ctx context.Context, now time.Time) {
	events, err := s.repo.GetInRange(ctx, now, now.Add(populateWindow))
	if err != nil {
		s.logger.Error("Failed to get upcoming scheduled reminders", zap.Error(err))
		return
	}

	if added := s.add(ctx, events); added > 0 {
		s.logger.Debug("Populated due index", zap.Int("count", added))
	}
}

func (s *Scheduler) add(ctx context.Context, events []models.ScheduledReminder) int {
	added := 0
	for _, event := range events {
		if err := s.index.Add(ctx, event.ID, event.Timestamp); err != nil {
			s.logger.Error("Failed to add scheduled reminder to due index",
				zap.Int("scheduled_reminder_id", event.ID), zap.Error(err))
			continue
		}
		added++
	}
	return added
}

// enqueueDispatch requests the dispatcher pass of the current minute
func (s *Scheduler) enqueueDispatch(now time.Time) {
	task, opts := tasks.NewDispatchTask(now)
	if _, err := s.client.Enqueue(task, opts...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		s.logger.Error("Failed to enqueue dispatcher pass", zap.Time("minute", now.Truncate(time.Minute)), zap.Error(err))
	}
}

// enqueueDue moves due scheduled reminders from the index to the queue
func (s *Scheduler) enqueueDue(ctx context.Context, now time.Time) {
	ids, err := s.index.Due(ctx, now)
	if err != nil {
		s.logger.Error("Failed to get due scheduled reminders", zap.Error(err))
		return
	}

	for _, id := range ids {
		task, opts := tasks.NewFireTask(id)
		if _, err := s.client.Enqueue(task, opts...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
			s.logger.Error("Failed to enqueue scheduled reminder", zap.Int("scheduled_reminder_id", id), zap.Error(err))
			continue
		}

		if err := s.index.Remove(ctx, id); err != nil {
			s.logger.Error("Failed to remove scheduled reminder from due index", zap.Int("scheduled_reminder_id", id), zap.Error(err))
			continue
		}

		s.logger.Info("Enqueued due scheduled reminder", zap.Int("scheduled_reminder_id", id))
	}
}
