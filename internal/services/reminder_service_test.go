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

type reminderFixture struct {
	reminders *mockReminderRepository
	events    *mockScheduledReminderRepository
	svc       *reminderService
}

func newReminderFixture(now time.Time, reminders ...models.Reminder) *reminderFixture {
	f := &reminderFixture{
		reminders: newMockReminderRepository(reminders...),
		events:    newMockScheduledReminderRepository(),
	}
	scheduler := NewScheduledReminderService(f.events, nil, time.UTC, zap.NewNop())
	f.svc = NewReminderService(f.reminders, scheduler, time.UTC, zap.NewNop())
	f.svc.now = func() time.Time { return now }
	return f
}

func intPtr(v int) *int          { return &v }
func stringPtr(v string) *string { return &v }

func TestReminderService_Create(t *testing.T) {
	now := date(2024, time.January, 1, 0, 0)
	tests := []struct {
		name           string
		req            *models.ReminderRequest
		expectedFields []string
		expectedEvents []time.Time
		expectedConfig string
	}{
		{
			name: "weekly with warnings",
			req: &models.ReminderRequest{
				Name:                  "  Water plants ",
				Type:                  "weekly",
				Config:                []byte(`{"day":"Monday","time":"9:00"}`),
				WarningNumber:         intPtr(1),
				WarningInterval:       stringPtr("hour"),
				WarningIntervalNumber: intPtr(2),
			},
			expectedEvents: []time.Time{date(2024, time.January, 1, 7, 0), date(2024, time.January, 1, 9, 0)},
			expectedConfig: `{"day":"monday","time":"09:00"}`,
		},
		{
			name: "disabled reminder is stored without events",
			req: &models.ReminderRequest{
				Name:       "Paused",
				Type:       "daily",
				Config:     []byte(`{"time":"07:00","repeat":{"monday":true}}`),
				IsDisabled: true,
			},
			expectedEvents: []time.Time{},
		},
		{
			name:           "missing name and unknown type",
			req:            &models.ReminderRequest{Type: "hourly", Config: []byte(`{}`)},
			expectedFields: []string{"name", "type"},
		},
		{
			name:           "misconfigured rule",
			req:            &models.ReminderRequest{Name: "Broken", Type: "monthly", Config: []byte(`{"type":"monthlyType1","day":40,"time":"09:00"}`)},
			expectedFields: []string{"config"},
		},
		{
			name: "n-yearly rule without any occurrence",
			req: &models.ReminderRequest{
				Name:   "Leap day",
				Type:   "n-yearly",
				Config: []byte(`{"type":"yearlyType1","month":"february","day":29,"time":"09:00","years":4,"startYear":2001}`),
			},
			expectedFields: []string{"config"},
		},
		{
			name: "partial warnings",
			req: &models.ReminderRequest{
				Name:          "Partial",
				Type:          "weekly",
				Config:        []byte(`{"day":"monday","time":"09:00"}`),
				WarningNumber: intPtr(2),
			},
			expectedFields: []string{"warnings"},
		},
		{
			name: "invalid warning unit",
			req: &models.ReminderRequest{
				Name:                  "Bad unit",
				Type:                  "weekly",
				Config:                []byte(`{"day":"monday","time":"09:00"}`),
				WarningNumber:         intPtr(2),
				WarningInterval:       stringPtr("fortnight"),
				WarningIntervalNumber: intPtr(1),
			},
			expectedFields: []string{"warnings"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReminderFixture(now)

			reminder, err := f.svc.Create(context.Background(), 10, tt.req)

			if tt.expectedFields != nil {
				var verr *models.ValidationError
				require.ErrorAs(t, err, &verr)
				for _, field := range tt.expectedFields {
					assert.Contains(t, verr.Fields, field)
				}
				assert.Len(t, verr.Fields, len(tt.expectedFields))
				assert.Nil(t, reminder)
				assert.Empty(t, f.reminders.reminders)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, 1, reminder.ID)
			assert.Equal(t, 10, reminder.UserID)
			assert.Equal(t, now, reminder.CreatedAt)
			if tt.expectedConfig != "" {
				assert.JSONEq(t, tt.expectedConfig, string(reminder.Config))
			}
			assert.Equal(t, tt.expectedEvents, f.events.timestamps(reminder.ID))
		})
	}
}

func TestReminderService_Create_RepositoryError(t *testing.T) {
	f := newReminderFixture(date(2024, time.January, 1, 0, 0))
	f.reminders.err = errors.New("database error")

	reminder, err := f.svc.Create(context.Background(), 10, &models.ReminderRequest{
		Name: "Water plants", Type: "weekly", Config: []byte(`{"day":"monday","time":"09:00"}`),
	})

	assert.Error(t, err)
	assert.Nil(t, reminder)
}

func TestReminderService_Create_ScheduleErrorRemovesReminder(t *testing.T) {
	f := newReminderFixture(date(2024, time.January, 1, 0, 0))
	f.events.err = errors.New("database error")

	reminder, err := f.svc.Create(context.Background(), 10, &models.ReminderRequest{
		Name: "Water plants", Type: "weekly", Config: []byte(`{"day":"monday","time":"09:00"}`),
	})

	assert.Error(t, err)
	assert.Nil(t, reminder)
	assert.Empty(t, f.reminders.reminders)
}

func TestReminderService_Authorization(t *testing.T) {
	owned := *weeklyReminder(1)
	tests := []struct {
		name          string
		userID        int
		role          models.Role
		id            int
		expectedError error
	}{
		{name: "owner", userID: 10, role: models.RoleUser, id: 1},
		{name: "admin", userID: 99, role: models.RoleAdmin, id: 1},
		{name: "other user", userID: 11, role: models.RoleUser, id: 1, expectedError: models.ErrForbidden},
		{name: "missing reminder", userID: 10, role: models.RoleUser, id: 2, expectedError: models.ErrReminderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReminderFixture(date(2024, time.January, 1, 0, 0), owned)

			reminder, err := f.svc.GetByID(context.Background(), tt.userID, tt.role, tt.id)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, reminder)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, reminder.ID)
			}

			err = f.svc.Delete(context.Background(), tt.userID, tt.role, tt.id)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReminderService_Update_RebuildsSchedule(t *testing.T) {
	now := date(2024, time.January, 1, 0, 0)
	f := newReminderFixture(now)
	req := &models.ReminderRequest{Name: "Water plants", Type: "weekly", Config: []byte(`{"day":"monday","time":"09:00"}`)}
	created, err := f.svc.Create(context.Background(), 10, req)
	require.NoError(t, err)

	t.Run("unchanged rule keeps the schedule", func(t *testing.T) {
		before := f.events.timestamps(created.ID)

		_, err := f.svc.Update(context.Background(), 10, models.RoleUser, created.ID, req)

		require.NoError(t, err)
		assert.Equal(t, before, f.events.timestamps(created.ID))
	})

	t.Run("changed rule replaces the schedule", func(t *testing.T) {
		changed := *req
		changed.Config = []byte(`{"day":"wednesday","time":"18:30"}`)

		updated, err := f.svc.Update(context.Background(), 10, models.RoleUser, created.ID, &changed)

		require.NoError(t, err)
		assert.Equal(t, recurrence.KindWeekly, updated.Type)
		assert.Equal(t, []time.Time{date(2024, time.January, 3, 18, 30)}, f.events.timestamps(created.ID))
	})

	t.Run("disabling clears the schedule", func(t *testing.T) {
		disabled := *req
		disabled.IsDisabled = true

		_, err := f.svc.Update(context.Background(), 10, models.RoleUser, created.ID, &disabled)

		require.NoError(t, err)
		assert.Empty(t, f.events.timestamps(created.ID))
	})

	t.Run("validation error keeps the stored reminder", func(t *testing.T) {
		invalid := *req
		invalid.Name = ""

		_, err := f.svc.Update(context.Background(), 10, models.RoleUser, created.ID, &invalid)

		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr)
		stored, err := f.reminders.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Water plants", stored.Name)
	})
}

func TestReminderService_Delete_PurgesSchedule(t *testing.T) {
	f := newReminderFixture(date(2024, time.January, 1, 0, 0))
	created, err := f.svc.Create(context.Background(), 10, &models.ReminderRequest{
		Name: "Water plants", Type: "weekly", Config: []byte(`{"day":"monday","time":"09:00"}`),
	})
	require.NoError(t, err)
	require.Len(t, f.events.timestamps(created.ID), 1)

	err = f.svc.Delete(context.Background(), 10, models.RoleUser, created.ID)

	require.NoError(t, err)
	assert.Empty(t, f.events.timestamps(created.ID))
	_, err = f.reminders.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, models.ErrReminderNotFound)
}

func TestReminderService_List(t *testing.T) {
	broken := models.Reminder{ID: 3, UserID: 11, Name: "Broken", Type: recurrence.KindWeekly, Config: []byte(`{}`)}
	f := newReminderFixture(date(2024, time.January, 1, 0, 0), *weeklyReminder(1), broken)

	t.Run("user sees own reminders", func(t *testing.T) {
		items, err := f.svc.List(context.Background(), 10, models.RoleUser)

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Every Monday at 09:00", items[0].Schedule)
	})

	t.Run("admin sees all reminders", func(t *testing.T) {
		items, err := f.svc.List(context.Background(), 1, models.RoleAdmin)

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "misconfigured", items[1].Schedule)
	})
}

func TestReminderService_GetScheduled(t *testing.T) {
	f := newReminderFixture(date(2024, time.January, 1, 0, 0))
	created, err := f.svc.Create(context.Background(), 10, &models.ReminderRequest{
		Name: "Water plants", Type: "weekly", Config: []byte(`{"day":"monday","time":"09:00"}`),
	})
	require.NoError(t, err)

	events, err := f.svc.GetScheduled(context.Background(), 10, models.RoleUser, created.ID)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, date(2024, time.January, 1, 9, 0), events[0].Timestamp)

	_, err = f.svc.GetScheduled(context.Background(), 11, models.RoleUser, created.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
}
