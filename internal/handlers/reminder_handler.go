package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mseiser/SelfMemo2/internal/models"
	"go.uber.org/zap"
)

// ReminderService is the interface that wraps methods for reminder business logic
type ReminderService interface {
	// Create validates a reminder request, stores the reminder for the user and schedules its first cycle.
	//
	// A *models.ValidationError is returned when the request is invalid.
	Create(ctx context.Context, userID int, req *models.ReminderRequest) (*models.Reminder, error)
	// GetByID returns a reminder visible to the user.
	//
	// models.ErrReminderNotFound and models.ErrForbidden are returned for missing and foreign reminders.
	GetByID(ctx context.Context, userID int, role models.Role, id int) (*models.Reminder, error)
	// List returns the reminders visible to the user with a human readable schedule.
	List(ctx context.Context, userID int, role models.Role) ([]models.ReminderListItem, error)
	// Update replaces a reminder and rebuilds its scheduled reminders.
	Update(ctx context.Context, userID int, role models.Role, id int, req *models.ReminderRequest) (*models.Reminder, error)
	// Delete removes a reminder together with its scheduled reminders.
	Delete(ctx context.Context, userID int, role models.Role, id int) error
	// GetScheduled lists the pending scheduled reminders of a reminder.
	GetScheduled(ctx context.Context, userID int, role models.Role, id int) ([]models.ScheduledReminder, error)
}

// ReminderHandler handles reminder CRUD requests
type ReminderHandler struct {
	BaseHandler
	service ReminderService
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(svc ReminderService, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers reminder handler routes
func (h *ReminderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reminders", h.List)
	r.Post("/reminders", h.Create)
	r.Get("/reminders/{id}", h.GetByID)
	r.Put("/reminders/{id}", h.Update)
	r.Delete("/reminders/{id}", h.Delete)
	r.Get("/reminders/{id}/scheduled", h.GetScheduled)
}

// List handles GET /reminders
// @Summary List reminders
// @Description List the reminders of the authenticated user, all reminders for admins
// @Tags reminders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ReminderListItem
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /reminders [get]
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.user(w, r)
	if !ok {
		return
	}

	reminders, err := h.service.List(r.Context(), userID, role)
	if err != nil {
		h.RespondServiceError(w, err, "failed to list reminders")
		return
	}

	h.RespondJSON(w, http.StatusOK, reminders)
}

// Create handles POST /reminders
// @Summary Create reminder
// @Description Create a reminder and schedule its next occurrence with warnings
// @Tags reminders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reminder body models.ReminderRequest true "Reminder"
// @Success 201 {object} models.Reminder
// @Failure 400 {object} models.ValidationError
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /reminders [post]
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.user(w, r)
	if !ok {
		return
	}

	var req models.ReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reminder, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to create reminder")
		return
	}

	h.RespondJSON(w, http.StatusCreated, reminder)
}

// GetByID handles GET /reminders/{id}
// @Summary Get reminder
// @Tags reminders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reminder ID"
// @Success 200 {object} models.Reminder
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reminders/{id} [get]
func (h *ReminderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.user(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	reminder, err := h.service.GetByID(r.Context(), userID, role, id)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get reminder")
		return
	}

	h.RespondJSON(w, http.StatusOK, reminder)
}

// Update handles PUT /reminders/{id}
// @Summary Update reminder
// @Description Replace a reminder; its pending scheduled reminders are rebuilt
// @Tags reminders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reminder ID"
// @Param reminder body models.ReminderRequest true "Reminder"
// @Success 200 {object} models.Reminder
// @Failure 400 {object} models.ValidationError
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reminders/{id} [put]
func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.user(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req models.ReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reminder, err := h.service.Update(r.Context(), userID, role, id, &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to update reminder")
		return
	}

	h.RespondJSON(w, http.StatusOK, reminder)
}

// Delete handles DELETE /reminders/{id}
// @Summary Delete reminder
// @Tags reminders
// @Security BearerAuth
// @Param id path int true "Reminder ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reminders/{id} [delete]
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.user(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, role, id); err != nil {
		h.RespondServiceError(w, err, "failed to delete reminder")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetScheduled handles GET /reminders/{id}/scheduled
// @Summary List scheduled reminders
// @Description List the pending occurrences and warnings of a reminder
// @Tags reminders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reminder ID"
// @Success 200 {array} models.ScheduledReminder
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reminders/{id}/scheduled [get]
func (h *ReminderHandler) GetScheduled(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.user(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	events, err := h.service.GetScheduled(r.Context(), userID, role, id)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get scheduled reminders")
		return
	}

	h.RespondJSON(w, http.StatusOK, events)
}
