package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/mseiser/SelfMemo2/internal/models"
	"github.com/mseiser/SelfMemo2/internal/tasks"
	"go.uber.org/zap"
)

// Dispatcher delivers due scheduled reminders
type Dispatcher interface {
	Dispatch(ctx context.Context, now time.Time) (*models.DispatchReport, error)
	Fire(ctx context.Context, id int, now time.Time) (*models.DispatchReport, error)
}

// Worker handles reminder tasks
type Worker struct {
	dispatcher Dispatcher
	now        func() time.Time
	logger     *zap.Logger
}

// NewWorker creates a new worker instance
func NewWorker(dispatcher Dispatcher, logger *zap.Logger) *Worker {
	return &Worker{
		dispatcher: dispatcher,
		now:        time.Now,
		logger:     logger,
	}
}

// HandleFire delivers a single scheduled reminder
func (w *Worker) HandleFire(ctx context.Context, t *asynq.Task) error {
	id, err := tasks.ParseFirePayload(t.Payload())
	if err != nil {
		w.logger.Error("Invalid fire task", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	report, err := w.dispatcher.Fire(ctx, id, w.now())
	if err != nil {
		w.logger.Error("Failed to fire scheduled reminder", zap.Int("scheduled_reminder_id", id), zap.Error(err))
		return err
	}

	for _, outcome := range report.Outcomes {
		w.logger.Debug("Fire outcome",
			zap.Int("scheduled_reminder_id", outcome.ScheduledReminderID),
			zap.String("status", string(outcome.Status)))
	}
	return nil
}

// HandleDispatch runs the dispatcher pass of the minute carried by the task.
// A pass picked up in a later minute still dispatches the minute it was enqueued for.
func (w *Worker) HandleDispatch(ctx context.Context, t *asynq.Task) error {
	minute, err := tasks.ParseDispatchPayload(t.Payload())
	if err != nil {
		w.logger.Error("Invalid dispatch task", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	if _, err := w.dispatcher.Dispatch(ctx, minute); err != nil {
		w.logger.Error("Dispatcher pass failed", zap.Time("minute", minute), zap.Error(err))
		return err
	}
	return nil
}
