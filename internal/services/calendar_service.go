package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/mseiser/SelfMemo2/internal/models"
	"go.uber.org/zap"
)

const (
	calendarProductID  = "-//SelfMemo//Reminders//EN"
	calendarEventLimit = 500
	calendarEventSpan  = 15 * time.Minute
)

// UpcomingEventRepository lists upcoming primary events joined with their reminder
type UpcomingEventRepository interface {
	GetUpcoming(ctx context.Context, userID int, from time.Time, limit int) ([]models.UpcomingEvent, error)
}

type calendarService struct {
	repo   UpcomingEventRepository
	logger *zap.Logger
}

// NewCalendarService creates the iCalendar feed service
func NewCalendarService(repo UpcomingEventRepository, logger *zap.Logger) *calendarService {
	return &calendarService{
		repo:   repo,
		logger: logger,
	}
}

// Feed renders the upcoming primary events of a user as an iCalendar document
func (s *calendarService) Feed(ctx context.Context, userID int, now time.Time) ([]byte, error) {
	events, err := s.repo.GetUpcoming(ctx, userID, now, calendarEventLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming events: %w", err)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProductID)

	for _, event := range events {
		vevent := ical.NewEvent()
		vevent.Props.SetText(ical.PropUID, eventUID(event.ScheduledReminder))
		vevent.Props.SetText(ical.PropSummary, event.ReminderName)
		if event.ReminderDescription != "" {
			vevent.Props.SetText(ical.PropDescription, event.ReminderDescription)
		}
		vevent.Props.SetDateTime(ical.PropDateTimeStart, event.Timestamp.UTC())
		vevent.Props.SetDateTime(ical.PropDateTimeEnd, event.Timestamp.Add(calendarEventSpan).UTC())
		vevent.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		cal.Children = append(cal.Children, vevent.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}

	s.logger.Debug("Calendar feed rendered", zap.Int("user_id", userID), zap.Int("events", len(events)))
	return buf.Bytes(), nil
}

// eventUID is stable for a (reminder, timestamp) pair so that clients update instead of duplicating
func eventUID(event models.ScheduledReminder) string {
	name := fmt.Sprintf("selfmemo:%d:%d", event.ReminderID, event.Timestamp.Unix())
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String() + "@selfmemo"
}
