package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mseiser/SelfMemo2/internal/models"
	"go.uber.org/zap"
)

// StatisticReminderRepository lists reminders for statistics
type StatisticReminderRepository interface {
	GetAll(ctx context.Context) ([]models.Reminder, error)
	GetAllByUserID(ctx context.Context, userID int) ([]models.Reminder, error)
}

// PendingEventCounter counts scheduled reminders that have not fired yet
type PendingEventCounter interface {
	CountUpcoming(ctx context.Context, userID int, from time.Time) (int, error)
}

type statisticService struct {
	reminderRepo StatisticReminderRepository
	eventRepo    PendingEventCounter
	location     *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

// NewStatisticService creates a new statistic service
func NewStatisticService(reminderRepo StatisticReminderRepository, eventRepo PendingEventCounter, location *time.Location, logger *zap.Logger) *statisticService {
	if location == nil {
		location = time.UTC
	}
	return &statisticService{
		reminderRepo: reminderRepo,
		eventRepo:    eventRepo,
		location:     location,
		now:          time.Now,
		logger:       logger,
	}
}

// GetDashboard summarizes the reminders of a user, of all users for admins
func (s *statisticService) GetDashboard(ctx context.Context, userID int, role models.Role) (*models.DashboardStatistics, error) {
	var (
		reminders []models.Reminder
		err       error
		scope     = userID
	)
	if role == models.RoleAdmin {
		scope = 0
		reminders, err = s.reminderRepo.GetAll(ctx)
	} else {
		reminders, err = s.reminderRepo.GetAllByUserID(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminders: %w", err)
	}

	now := s.now().In(s.location)
	stats := &models.DashboardStatistics{TotalReminders: len(reminders)}
	warningTotal := 0
	for _, reminder := range reminders {
		if reminder.IsDisabled {
			stats.DisabledReminders++
		}
		if reminder.HasWarnings {
			stats.RemindersWithWarnings++
			warningTotal += reminder.WarningNumber
		}
		if reminder.LastSent != nil && sameDay(reminder.LastSent.In(s.location), now) {
			stats.SentToday++
		}
	}
	if stats.RemindersWithWarnings > 0 {
		average := float64(warningTotal) / float64(stats.RemindersWithWarnings)
		stats.AverageWarnings = math.Round(average*100) / 100
	}

	stats.PendingEvents, err = s.eventRepo.CountUpcoming(ctx, scope, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending events: %w", err)
	}

	return stats, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
