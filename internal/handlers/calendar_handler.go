package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CalendarService renders iCalendar feeds
type CalendarService interface {
	Feed(ctx context.Context, userID int, now time.Time) ([]byte, error)
}

// CalendarHandler serves the iCalendar feed of upcoming reminders
type CalendarHandler struct {
	BaseHandler
	service CalendarService
	now     func() time.Time
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(svc CalendarService, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
		now:         time.Now,
	}
}

// RegisterRoutes registers calendar handler routes
func (h *CalendarHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reminders/calendar.ics", h.Feed)
}

// Feed handles GET /reminders/calendar.ics
// @Summary Calendar feed
// @Description iCalendar feed of the upcoming reminder occurrences of the authenticated user.
// @Description Calendar clients may pass the token as access_token query parameter.
// @Tags calendar
// @Produce text/calendar
// @Security BearerAuth
// @Success 200 {string} string "VCALENDAR document"
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /reminders/calendar.ics [get]
func (h *CalendarHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.user(w, r)
	if !ok {
		return
	}

	data, err := h.service.Feed(r.Context(), userID, h.now())
	if err != nil {
		h.Logger.Error("failed to render calendar feed", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to render calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="reminders.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.Logger.Error("failed to write calendar feed", zap.Error(err))
	}
}
