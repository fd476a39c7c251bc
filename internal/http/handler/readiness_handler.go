package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/woodcraft-crm/leadflow-api/internal/service"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

type ReadinessHandler struct {
	readinessService *service.ReadinessService
	logger           *zap.Logger
}

func NewReadinessHandler(readinessService *service.ReadinessService, logger *zap.Logger) *ReadinessHandler {
	return &ReadinessHandler{
		readinessService: readinessService,
		logger:           logger,
	}
}

// Check godoc
// @Summary Readiness of the lead's current stage
// @Description Gate verdict for leaving the current stage plus the prompt the caller should be shown
// @Tags Readiness
// @Produce json
// @Param id path int true "Lead ID"
// @Success 200 {object} domain.ReadinessDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/readiness [get]
func (h *ReadinessHandler) Check(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}

	dto, err := h.readinessService.Check(r.Context(), actor, id)
	if err != nil {
		respondError(w, h.logger, err, "check readiness")
		return
	}
	respondJSON(w, http.StatusOK, dto)
}

// PutFacts godoc
// @Summary Store readiness facts
// @Description Replaces the fact bag a stage's readiness rule reads. Used by the site, tech-check and production tools.
// @Tags Readiness
// @Accept json
// @Param id path int true "Lead ID"
// @Param stage path string true "Stage, as wire value or listing key"
// @Param request body workflow.Facts true "Fact bag"
// @Success 204
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/readiness/{stage} [put]
func (h *ReadinessHandler) PutFacts(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}
	stage, err := workflow.ParseStage(chi.URLParam(r, "stage"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var facts workflow.Facts
	if !decodeAndValidate(w, r, &facts) {
		return
	}

	if err := h.readinessService.PutFacts(r.Context(), actor, id, stage, facts); err != nil {
		respondError(w, h.logger, err, "store readiness facts")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
