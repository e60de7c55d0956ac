package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mseiser/SelfMemo2/internal/middleware"
	"github.com/mseiser/SelfMemo2/internal/models"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps service errors to HTTP responses, unknown errors are logged and hidden
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, err error, message string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		h.RespondJSON(w, http.StatusBadRequest, verr)
	case errors.Is(err, models.ErrReminderNotFound):
		h.RespondError(w, http.StatusNotFound, "reminder not found")
	case errors.Is(err, models.ErrForbidden):
		h.RespondError(w, http.StatusForbidden, "access denied")
	default:
		h.Logger.Error(message, zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, message)
	}
}

// user returns the authenticated user of the request, responding 401 when there is none
func (h *BaseHandler) user(w http.ResponseWriter, r *http.Request) (int, models.Role, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return 0, 0, false
	}
	role, _ := middleware.GetRole(r.Context())
	return userID, role, true
}

// pathID parses the {id} URL parameter, responding 400 when it is not a positive integer
func (h *BaseHandler) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid reminder id")
		return 0, false
	}
	return id, true
}
