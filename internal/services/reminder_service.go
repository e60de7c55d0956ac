package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mseiser/SelfMemo2/internal/models"
	"github.com/mseiser/SelfMemo2/internal/recurrence"
	"go.uber.org/zap"
)

const maxReminderNameLength = 255

// ReminderRepository is the persistence of reminders
type ReminderRepository interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	GetByID(ctx context.Context, id int) (*models.Reminder, error)
	GetAll(ctx context.Context) ([]models.Reminder, error)
	GetAllByUserID(ctx context.Context, userID int) ([]models.Reminder, error)
	Update(ctx context.Context, reminder *models.Reminder) error
	Delete(ctx context.Context, id int) error
}

// ReminderScheduler keeps the scheduled reminders of a reminder in sync with its rule
type ReminderScheduler interface {
	Materialize(ctx context.Context, reminder *models.Reminder, reference time.Time) ([]models.ScheduledReminder, error)
	Rebuild(ctx context.Context, reminder *models.Reminder, reference time.Time) ([]models.ScheduledReminder, error)
	Purge(ctx context.Context, reminderID int) error
	Scheduled(ctx context.Context, reminderID int) ([]models.ScheduledReminder, error)
}

type reminderService struct {
	repo      ReminderRepository
	scheduler ReminderScheduler
	location  *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewReminderService creates a new reminder service
func NewReminderService(repo ReminderRepository, scheduler ReminderScheduler, location *time.Location, logger *zap.Logger) *reminderService {
	if location == nil {
		location = time.UTC
	}
	return &reminderService{
		repo:      repo,
		scheduler: scheduler,
		location:  location,
		now:       time.Now,
		logger:    logger,
	}
}

// Create validates and stores a reminder, then materializes its first cycle
func (s *reminderService) Create(ctx context.Context, userID int, req *models.ReminderRequest) (*models.Reminder, error) {
	now := s.now()
	reminder := &models.Reminder{UserID: userID, CreatedAt: now.UTC().Truncate(time.Second)}
	reminder.UpdatedAt = reminder.CreatedAt
	if err := s.apply(reminder, req, now); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	if _, err := s.scheduler.Materialize(ctx, reminder, now); err != nil {
		if delErr := s.repo.Delete(ctx, reminder.ID); delErr != nil {
			s.logger.Error("Failed to remove unscheduled reminder",
				zap.Int("reminder_id", reminder.ID),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to schedule reminder: %w", err)
	}

	s.logger.Info("Reminder created", zap.Int("reminder_id", reminder.ID), zap.Int("user_id", userID))
	return reminder, nil
}

// GetByID returns a reminder owned by the user, any reminder for admins
func (s *reminderService) GetByID(ctx context.Context, userID int, role models.Role, id int) (*models.Reminder, error) {
	reminder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(reminder, userID, role); err != nil {
		return nil, err
	}
	return reminder, nil
}

// List returns the reminders of the user, all reminders for admins
func (s *reminderService) List(ctx context.Context, userID int, role models.Role) ([]models.ReminderListItem, error) {
	var (
		reminders []models.Reminder
		err       error
	)
	if role == models.RoleAdmin {
		reminders, err = s.repo.GetAll(ctx)
	} else {
		reminders, err = s.repo.GetAllByUserID(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	items := make([]models.ReminderListItem, 0, len(reminders))
	for i := range reminders {
		reminder := &reminders[i]
		items = append(items, models.ReminderListItem{
			ID:         reminder.ID,
			Name:       reminder.Name,
			Type:       reminder.Type,
			Schedule:   s.describe(reminder),
			IsDisabled: reminder.IsDisabled,
			LastSent:   reminder.LastSent,
		})
	}
	return items, nil
}

// Update replaces a reminder and rebuilds its scheduled reminders
func (s *reminderService) Update(ctx context.Context, userID int, role models.Role, id int, req *models.ReminderRequest) (*models.Reminder, error) {
	reminder, err := s.GetByID(ctx, userID, role, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.apply(reminder, req, now); err != nil {
		return nil, err
	}

	reminder.UpdatedAt = now.UTC().Truncate(time.Second)

	if err := s.repo.Update(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}

	if _, err := s.scheduler.Rebuild(ctx, reminder, now); err != nil {
		return nil, fmt.Errorf("failed to reschedule reminder: %w", err)
	}

	s.logger.Info("Reminder updated", zap.Int("reminder_id", reminder.ID))
	return reminder, nil
}

// Delete removes a reminder together with its scheduled reminders
func (s *reminderService) Delete(ctx context.Context, userID int, role models.Role, id int) error {
	reminder, err := s.GetByID(ctx, userID, role, id)
	if err != nil {
		return err
	}

	if err := s.scheduler.Purge(ctx, reminder.ID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, reminder.ID); err != nil {
		return err
	}

	s.logger.Info("Reminder deleted", zap.Int("reminder_id", reminder.ID))
	return nil
}

// GetScheduled lists the pending scheduled reminders of a reminder
func (s *reminderService) GetScheduled(ctx context.Context, userID int, role models.Role, id int) ([]models.ScheduledReminder, error) {
	reminder, err := s.GetByID(ctx, userID, role, id)
	if err != nil {
		return nil, err
	}
	return s.scheduler.Scheduled(ctx, reminder.ID)
}

// apply validates the request and copies it onto the reminder with a canonical config.
// A rule is rejected when it has no occurrence after now.
func (s *reminderService) apply(reminder *models.Reminder, req *models.ReminderRequest, now time.Time) error {
	verr := models.NewValidationError()

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		verr.Add("name", "name is required")
	case len(name) > maxReminderNameLength:
		verr.Add("name", fmt.Sprintf("name must be at most %d characters", maxReminderNameLength))
	}

	kind := recurrence.Kind(req.Type)
	var rule recurrence.Rule
	if !isKnownKind(kind) {
		verr.Add("type", "type must be one of "+joinKinds())
	} else {
		parsed, err := recurrence.Parse(kind, req.Config)
		if err == nil {
			_, err = recurrence.Primary(parsed, now.In(s.location), recurrence.Options{CreatedAt: reminder.CreatedAt})
		}
		if err != nil {
			verr.Add("config", err.Error())
		}
		rule = parsed
	}

	warnings, ok := requestWarnings(req)
	if !ok {
		verr.Add("warnings", "warning_number, warning_interval and warning_interval_number must be set together")
	} else if warnings != nil {
		if err := warnings.Validate(); err != nil {
			verr.Add("warnings", err.Error())
		}
	}

	if verr.HasErrors() {
		return verr
	}

	config, err := recurrence.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	reminder.Name = name
	reminder.Description = strings.TrimSpace(req.Description)
	reminder.Type = kind
	reminder.Config = config
	reminder.IsDisabled = req.IsDisabled
	reminder.HasWarnings = warnings != nil
	reminder.WarningNumber, reminder.WarningInterval, reminder.WarningIntervalNumber = 0, "", 0
	if warnings != nil {
		reminder.WarningNumber = warnings.Count
		reminder.WarningInterval = string(warnings.Unit)
		reminder.WarningIntervalNumber = warnings.Every
	}

	return nil
}

func (s *reminderService) describe(reminder *models.Reminder) string {
	rule, err := reminder.Rule()
	if err != nil {
		return "misconfigured"
	}
	return recurrence.Describe(rule, s.location)
}

// requestWarnings returns nil when no warning field is set and false when only some are
func requestWarnings(req *models.ReminderRequest) (*recurrence.Warnings, bool) {
	set := 0
	for _, present := range []bool{req.WarningNumber != nil, req.WarningInterval != nil, req.WarningIntervalNumber != nil} {
		if present {
			set++
		}
	}
	switch set {
	case 0:
		return nil, true
	case 3:
		return &recurrence.Warnings{
			Count: *req.WarningNumber,
			Unit:  recurrence.WarningUnit(*req.WarningInterval),
			Every: *req.WarningIntervalNumber,
		}, true
	default:
		return nil, false
	}
}

func authorize(reminder *models.Reminder, userID int, role models.Role) error {
	if role == models.RoleAdmin || reminder.UserID == userID {
		return nil
	}
	return models.ErrForbidden
}

func isKnownKind(kind recurrence.Kind) bool {
	for _, k := range recurrence.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func joinKinds() string {
	names := make([]string, len(recurrence.Kinds))
	for i, k := range recurrence.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
