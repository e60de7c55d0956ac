package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mseiser/SelfMemo2/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockPendingEventCounter is a mock implementation of PendingEventCounter
type mockPendingEventCounter struct {
	count  int
	userID int
	err    error
}

func (m *mockPendingEventCounter) CountUpcoming(ctx context.Context, userID int, from time.Time) (int, error) {
	m.userID = userID
	if m.err != nil {
		return 0, m.err
	}
	return m.count, nil
}

func TestStatisticService_GetDashboard(t *testing.T) {
	now := date(2024, time.January, 2, 15, 0)
	sentToday := date(2024, time.January, 2, 9, 0)
	sentYesterday := date(2024, time.January, 1, 9, 0)
	reminders := []models.Reminder{
		{ID: 1, UserID: 10, HasWarnings: true, WarningNumber: 2, LastSent: &sentToday},
		{ID: 2, UserID: 10, HasWarnings: true, WarningNumber: 3, IsDisabled: true, LastSent: &sentYesterday},
		{ID: 3, UserID: 10, HasWarnings: true, WarningNumber: 2},
		{ID: 4, UserID: 11, LastSent: &sentToday},
	}

	tests := []struct {
		name          string
		userID        int
		role          models.Role
		expected      *models.DashboardStatistics
		expectedScope int
	}{
		{
			name:   "user",
			userID: 10,
			role:   models.RoleUser,
			expected: &models.DashboardStatistics{
				TotalReminders:        3,
				DisabledReminders:     1,
				RemindersWithWarnings: 3,
				AverageWarnings:       2.33,
				PendingEvents:         5,
				SentToday:             1,
			},
			expectedScope: 10,
		},
		{
			name:   "admin",
			userID: 1,
			role:   models.RoleAdmin,
			expected: &models.DashboardStatistics{
				TotalReminders:        4,
				DisabledReminders:     1,
				RemindersWithWarnings: 3,
				AverageWarnings:       2.33,
				PendingEvents:         5,
				SentToday:             2,
			},
			expectedScope: 0,
		},
		{
			name:          "no reminders",
			userID:        12,
			role:          models.RoleUser,
			expected:      &models.DashboardStatistics{PendingEvents: 5},
			expectedScope: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := &mockPendingEventCounter{count: 5}
			svc := NewStatisticService(newMockReminderRepository(reminders...), counter, time.UTC, zap.NewNop())
			svc.now = func() time.Time { return now }

			stats, err := svc.GetDashboard(context.Background(), tt.userID, tt.role)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, stats)
			assert.Equal(t, tt.expectedScope, counter.userID)
		})
	}
}

func TestStatisticService_GetDashboard_Errors(t *testing.T) {
	t.Run("reminder repository", func(t *testing.T) {
		repo := newMockReminderRepository()
		repo.err = errors.New("database error")
		svc := NewStatisticService(repo, &mockPendingEventCounter{}, time.UTC, zap.NewNop())

		stats, err := svc.GetDashboard(context.Background(), 10, models.RoleUser)

		assert.Error(t, err)
		assert.Nil(t, stats)
	})

	t.Run("event counter", func(t *testing.T) {
		svc := NewStatisticService(newMockReminderRepository(), &mockPendingEventCounter{err: errors.New("database error")}, time.UTC, zap.NewNop())

		stats, err := svc.GetDashboard(context.Background(), 10, models.RoleUser)

		assert.Error(t, err)
		assert.Nil(t, stats)
	})
}
