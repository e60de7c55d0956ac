package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mseiser/SelfMemo2/internal/models"
	"go.uber.org/zap"
)

// StatisticService is the interface that wraps methods for dashboard statistics
type StatisticService interface {
	GetDashboard(ctx context.Context, userID int, role models.Role) (*models.DashboardStatistics, error)
}

// StatisticHandler handles statistics requests
type StatisticHandler struct {
	BaseHandler
	service StatisticService
}

// NewStatisticHandler creates a new statistic handler
func NewStatisticHandler(svc StatisticService, logger *zap.Logger) *StatisticHandler {
	return &StatisticHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers statistic handler routes
func (h *StatisticHandler) RegisterRoutes(r chi.Router) {
	r.Get("/statistics/dashboard", h.GetDashboard)
}

// GetDashboard handles GET /statistics/dashboard
// @Summary Dashboard statistics
// @Tags statistics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.DashboardStatistics
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /statistics/dashboard [get]
func (h *StatisticHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.user(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetDashboard(r.Context(), userID, role)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get statistics")
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}
