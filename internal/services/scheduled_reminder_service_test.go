package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mseiser/SelfMemo2/internal/models"
	"github.com/mseiser/SelfMemo2/internal/recurrence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func weeklyReminder(id int) *models.Reminder {
	return &models.Reminder{
		ID:     id,
		UserID: 10,
		Name:   "Water plants",
		Type:   recurrence.KindWeekly,
		Config: []byte(`{"day":"monday","time":"09:00"}`),
	}
}

func TestNewScheduledReminderService(t *testing.T) {
	repo := newMockScheduledReminderRepository()
	logger := zap.NewNop()

	svc := NewScheduledReminderService(repo, nil, nil, logger)

	assert.NotNil(t, svc)
	assert.Equal(t, repo, svc.repo)
	assert.Equal(t, time.UTC, svc.location)
	assert.Equal(t, logger, svc.logger)
}

func TestScheduledReminderService_Materialize(t *testing.T) {
	now := date(2024, time.January, 1, 0, 0) // Monday
	withWarnings := weeklyReminder(1)
	withWarnings.HasWarnings = true
	withWarnings.WarningNumber = 2
	withWarnings.WarningInterval = "hour"
	withWarnings.WarningIntervalNumber = 1

	disabled := weeklyReminder(2)
	disabled.IsDisabled = true

	expired := &models.Reminder{ID: 3, Type: recurrence.KindOneTime, Config: []byte(`{"timestamp":1703980800}`)}

	misconfigured := &models.Reminder{ID: 4, Type: recurrence.KindMonthly, Config: []byte(`{"type":"monthlyType2","orderNumber":"fifth","weekDay":"monday","time":"09:00"}`)}

	tests := []struct {
		name          string
		reminder      *models.Reminder
		expected      []models.ScheduledReminder
		expectedError error
	}{
		{
			name:     "primary with warnings",
			reminder: withWarnings,
			expected: []models.ScheduledReminder{
				{ID: 1, ReminderID: 1, Timestamp: date(2024, time.January, 1, 7, 0), IsWarning: true},
				{ID: 2, ReminderID: 1, Timestamp: date(2024, time.January, 1, 8, 0), IsWarning: true},
				{ID: 3, ReminderID: 1, Timestamp: date(2024, time.January, 1, 9, 0)},
			},
		},
		{
			name:     "disabled reminder",
			reminder: disabled,
		},
		{
			name:     "expired one-time reminder",
			reminder: expired,
		},
		{
			name:          "misconfigured rule",
			reminder:      misconfigured,
			expectedError: recurrence.ErrMisconfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockScheduledReminderRepository()
			index := newMockDueIndex()
			svc := NewScheduledReminderService(repo, index, time.UTC, zap.NewNop())

			created, err := svc.Materialize(context.Background(), tt.reminder, now)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, created)
			assert.Len(t, index.added, len(tt.expected))
		})
	}
}

func TestScheduledReminderService_Materialize_NoDuplicates(t *testing.T) {
	repo := newMockScheduledReminderRepository()
	svc := NewScheduledReminderService(repo, nil, time.UTC, zap.NewNop())
	reminder := weeklyReminder(1)
	now := date(2024, time.January, 1, 0, 0)

	first, err := svc.Materialize(context.Background(), reminder, now)
	require.NoError(t, err)
	second, err := svc.Materialize(context.Background(), reminder, now)
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Empty(t, second)
	assert.Equal(t, []time.Time{date(2024, time.January, 1, 9, 0)}, repo.timestamps(1))
}

func TestScheduledReminderService_Materialize_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	repo := newMockScheduledReminderRepository()
	svc := NewScheduledReminderService(repo, nil, tokyo, zap.NewNop())

	// 2024-01-01 00:00 UTC is Monday 09:00 in Tokyo, which is not strictly in the future
	created, err := svc.Materialize(context.Background(), weeklyReminder(1), date(2024, time.January, 1, 0, 0))

	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, date(2024, time.January, 8, 0, 0), created[0].Timestamp)
}

func TestScheduledReminderService_Materialize_RepositoryError(t *testing.T) {
	repo := newMockScheduledReminderRepository()
	repo.err = errors.New("database error")
	svc := NewScheduledReminderService(repo, nil, time.UTC, zap.NewNop())

	created, err := svc.Materialize(context.Background(), weeklyReminder(1), date(2024, time.January, 1, 0, 0))

	assert.Error(t, err)
	assert.Empty(t, created)
}

func TestScheduledReminderService_Materialize_IndexErrorIsNotFatal(t *testing.T) {
	repo := newMockScheduledReminderRepository()
	index := newMockDueIndex()
	index.err = errors.New("redis down")
	svc := NewScheduledReminderService(repo, index, time.UTC, zap.NewNop())

	created, err := svc.Materialize(context.Background(), weeklyReminder(1), date(2024, time.January, 1, 0, 0))

	assert.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestScheduledReminderService_MaterializeAll(t *testing.T) {
	repo := newMockScheduledReminderRepository()
	svc := NewScheduledReminderService(repo, nil, time.UTC, zap.NewNop())
	reminders := []models.Reminder{
		*weeklyReminder(1),
		{ID: 2, Type: recurrence.KindWeekly, Config: []byte(`{"day":"funday","time":"09:00"}`)},
		*weeklyReminder(3),
	}

	count, err := svc.MaterializeAll(context.Background(), reminders, date(2024, time.January, 1, 0, 0))

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, repo.timestamps(3), 1)
}

func TestScheduledReminderService_Rebuild_Idempotent(t *testing.T) {
	repo := newMockScheduledReminderRepository()
	index := newMockDueIndex()
	svc := NewScheduledReminderService(repo, index, time.UTC, zap.NewNop())
	reminder := weeklyReminder(1)
	reminder.HasWarnings = true
	reminder.WarningNumber = 3
	reminder.WarningInterval = "day"
	reminder.WarningIntervalNumber = 1
	now := date(2024, time.January, 3, 12, 0)

	_, err := svc.Materialize(context.Background(), reminder, now)
	require.NoError(t, err)
	before := repo.timestamps(1)

	_, err = svc.Rebuild(context.Background(), reminder, now)
	require.NoError(t, err)

	assert.Equal(t, before, repo.timestamps(1))
	assert.Len(t, index.removed, len(before))
}

func TestScheduledReminderService_Rebuild_DisabledPurges(t *testing.T) {
	repo := newMockScheduledReminderRepository()
	svc := NewScheduledReminderService(repo, nil, time.UTC, zap.NewNop())
	reminder := weeklyReminder(1)
	now := date(2024, time.January, 1, 0, 0)

	_, err := svc.Materialize(context.Background(), reminder, now)
	require.NoError(t, err)

	reminder.IsDisabled = true
	_, err = svc.Rebuild(context.Background(), reminder, now)

	require.NoError(t, err)
	assert.Empty(t, repo.timestamps(1))
}

func TestScheduledReminderService_Scheduled(t *testing.T) {
	repo := newMockScheduledReminderRepository()
	svc := NewScheduledReminderService(repo, nil, time.UTC, zap.NewNop())

	events, err := svc.Scheduled(context.Background(), 1)

	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}
