package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mseiser/SelfMemo2/internal/models"
	"github.com/mseiser/SelfMemo2/internal/recurrence"
	"go.uber.org/zap"
)

const occurrenceLayout = "Monday, 2006-01-02 15:04 MST"

var defaultTemplates = map[string]models.EmailTemplateParts{
	models.TemplateSlugReminder: {
		SubjectTemplate: "Reminder: {{reminderName}}",
		BodyTemplate: "Hello {{userName}},\n\n" +
			"this is your reminder \"{{reminderName}}\" for {{occurrence}}.\n\n" +
			"{{reminderDescription}}\n\n" +
			"Schedule: {{schedule}}\n" +
			"Manage your reminders at {{appUrl}}\n",
	},
	models.TemplateSlugWarning: {
		SubjectTemplate: "Upcoming: {{reminderName}}",
		BodyTemplate: "Hello {{userName}},\n\n" +
			"your reminder \"{{reminderName}}\" is coming up on {{occurrence}}.\n\n" +
			"{{reminderDescription}}\n\n" +
			"Schedule: {{schedule}}\n" +
			"Manage your reminders at {{appUrl}}\n",
	},
}

// UserRepository resolves notification recipients
type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// EmailTemplateRepository provides notification templates by slug
type EmailTemplateRepository interface {
	GetTemplateBySlug(ctx context.Context, slug string) (*models.EmailTemplateParts, error)
}

// LastSentRepository records primary dispatches
type LastSentRepository interface {
	UpdateLastSent(ctx context.Context, id int, lastSent time.Time) error
}

// Mailer is the email transport
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type notificationService struct {
	userRepo     UserRepository
	templateRepo EmailTemplateRepository
	reminderRepo LastSentRepository
	mailer       Mailer
	appURL       string
	location     *time.Location
	logger       *zap.Logger
}

// NewNotificationService creates the email notification sender
func NewNotificationService(
	userRepo UserRepository,
	templateRepo EmailTemplateRepository,
	reminderRepo LastSentRepository,
	mailer Mailer,
	appURL string,
	location *time.Location,
	logger *zap.Logger,
) *notificationService {
	if location == nil {
		location = time.UTC
	}
	return &notificationService{
		userRepo:     userRepo,
		templateRepo: templateRepo,
		reminderRepo: reminderRepo,
		mailer:       mailer,
		appURL:       appURL,
		location:     location,
		logger:       logger,
	}
}

// Notify emails the owner of the reminder about a due event.
// After a successful primary send the reminder's last_sent is set to now.
func (s *notificationService) Notify(ctx context.Context, reminder *models.Reminder, event *models.ScheduledReminder, now time.Time) error {
	user, err := s.userRepo.GetByID(ctx, reminder.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("Skipping notification of reminder without owner",
				zap.Int("reminder_id", reminder.ID),
				zap.Int("user_id", reminder.UserID))
		}
		return fmt.Errorf("failed to get recipient: %w", err)
	}

	slug := models.TemplateSlugReminder
	if event.IsWarning {
		slug = models.TemplateSlugWarning
	}
	subject, body := s.Render(s.template(ctx, slug), s.variables(reminder, event, user))

	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		return err
	}

	if !event.IsWarning {
		if err := s.reminderRepo.UpdateLastSent(ctx, reminder.ID, now); err != nil {
			s.logger.Error("Failed to update last sent",
				zap.Int("reminder_id", reminder.ID),
				zap.Error(err))
		}
	}

	return nil
}

// Render substitutes the placeholders of a template
func (s *notificationService) Render(parts models.EmailTemplateParts, variables map[string]string) (string, string) {
	keys := make([]string, 0, len(variables))
	for key := range variables {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		pairs = append(pairs, "{{"+key+"}}", variables[key])
	}
	replacer := strings.NewReplacer(pairs...)

	return replacer.Replace(parts.SubjectTemplate), replacer.Replace(parts.BodyTemplate)
}

// template returns the stored template of slug, or the built-in one
func (s *notificationService) template(ctx context.Context, slug string) models.EmailTemplateParts {
	parts, err := s.templateRepo.GetTemplateBySlug(ctx, slug)
	if err == nil {
		return *parts
	}
	if !errors.Is(err, models.ErrEmailTemplateNotFound) {
		s.logger.Warn("Falling back to built-in email template", zap.String("slug", slug), zap.Error(err))
	}
	return defaultTemplates[slug]
}

func (s *notificationService) variables(reminder *models.Reminder, event *models.ScheduledReminder, user *models.User) map[string]string {
	occurrence := event.Timestamp
	schedule := ""

	if rule, err := reminder.Rule(); err == nil {
		schedule = recurrence.Describe(rule, s.location)
		// a warning announces the primary occurrence that follows it
		if event.IsWarning {
			next, err := recurrence.Primary(rule, event.Timestamp.In(s.location), recurrence.Options{CreatedAt: reminder.CreatedAt})
			if err == nil && len(next) > 0 {
				occurrence = next[0]
			}
		}
	}

	return map[string]string{
		"reminderName":        reminder.Name,
		"reminderDescription": reminder.Description,
		"userName":            user.DisplayName(),
		"occurrence":          occurrence.In(s.location).Format(occurrenceLayout),
		"schedule":            schedule,
		"appUrl":              s.appURL,
	}
}
