package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mseiser/SelfMemo2/internal/models"
	"go.uber.org/zap"
)

// Dispatcher runs one dispatcher pass
type Dispatcher interface {
	// Dispatch sends every scheduled reminder due in the minute of "now" and schedules the next cycles.
	Dispatch(ctx context.Context, now time.Time) (*models.DispatchReport, error)
}

// TriggerHandler exposes the dispatcher to an external minute clock
type TriggerHandler struct {
	BaseHandler
	dispatcher Dispatcher
	now        func() time.Time
}

// NewTriggerHandler creates a new trigger handler
func NewTriggerHandler(dispatcher Dispatcher, logger *zap.Logger) *TriggerHandler {
	return &TriggerHandler{
		BaseHandler: BaseHandler{Logger: logger},
		dispatcher:  dispatcher,
		now:         time.Now,
	}
}

// RegisterRoutes registers trigger handler routes
func (h *TriggerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reminders/trigger", h.Trigger)
	r.Post("/reminders/trigger", h.Trigger)
}

// Trigger handles GET|POST /reminders/trigger
// @Summary Run dispatcher pass
// @Description Send all reminders due in the current minute. Requires API key authentication.
// @Tags dispatch
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.DispatchReport
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /reminders/trigger [post]
func (h *TriggerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	report, err := h.dispatcher.Dispatch(r.Context(), h.now())
	if err != nil {
		h.Logger.Error("dispatcher pass failed", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to dispatch reminders")
		return
	}

	h.RespondJSON(w, http.StatusOK, report)
}
