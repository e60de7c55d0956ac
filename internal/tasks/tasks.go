// Package tasks defines the asynq tasks exchanged by the scheduler and the worker
package tasks

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypeFire delivers a single scheduled reminder
	TypeFire = "reminders:fire"
	// TypeDispatch runs a dispatcher pass for one minute
	TypeDispatch = "reminders:dispatch"

	// Queue is the asynq queue of reminder tasks
	Queue = "default"
)

// NewFireTask creates the task delivering scheduled reminder id.
// The task ID makes repeated enqueues of the same event collapse into one task,
// and delivery is at most once, so the task is never retried.
func NewFireTask(id int) (*asynq.Task, []asynq.Option) {
	return asynq.NewTask(TypeFire, []byte(strconv.Itoa(id))), []asynq.Option{
		asynq.Queue(Queue),
		asynq.TaskID(fmt.Sprintf("fire:%d", id)),
		asynq.MaxRetry(0),
		asynq.Retention(time.Hour),
	}
}

// NewDispatchTask creates the dispatcher pass of the minute containing at
func NewDispatchTask(at time.Time) (*asynq.Task, []asynq.Option) {
	minute := at.Truncate(time.Minute).Unix()
	return asynq.NewTask(TypeDispatch, []byte(strconv.FormatInt(minute, 10))), []asynq.Option{
		asynq.Queue(Queue),
		asynq.TaskID(fmt.Sprintf("dispatch:%d", minute)),
		asynq.MaxRetry(0),
		asynq.Timeout(time.Minute),
		asynq.Retention(time.Hour),
	}
}

// ParseFirePayload extracts the scheduled reminder ID of a fire task
func ParseFirePayload(payload []byte) (int, error) {
	var id int
	if _, err := fmt.Sscanf(string(payload), "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid fire payload %q: %w", payload, err)
	}
	return id, nil
}

// ParseDispatchPayload extracts the minute of a dispatch task
func ParseDispatchPayload(payload []byte) (time.Time, error) {
	minute, err := strconv.ParseInt(string(payload), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid dispatch payload %q: %w", payload, err)
	}
	return time.Unix(minute, 0).UTC(), nil
}
