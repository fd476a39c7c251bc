package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/woodcraft-crm/leadflow-api/internal/service"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Department godoc
// @Summary Department dashboard
// @Description Per-stage active and on-hold counts for the stages a department owns
// @Tags Dashboard
// @Produce json
// @Param department path string true "Department" Enums(sales, site, techCheck, production, installation)
// @Success 200 {object} domain.DashboardDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/{department} [get]
func (h *DashboardHandler) Department(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	dto, err := h.dashboardService.Department(r.Context(), actor, workflow.Department(chi.URLParam(r, "department")))
	if err != nil {
		respondError(w, h.logger, err, "load dashboard")
		return
	}
	respondJSON(w, http.StatusOK, dto)
}
