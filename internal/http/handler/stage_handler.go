package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

// StageHandler exposes the stage registry
type StageHandler struct {
	logger *zap.Logger
}

func NewStageHandler(logger *zap.Logger) *StageHandler {
	return &StageHandler{logger: logger}
}

// List godoc
// @Summary List stages
// @Description Every stage descriptor in pipeline order, terminal stages last
// @Tags Stages
// @Produce json
// @Success 200 {array} workflow.StageDescriptor
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stages [get]
func (h *StageHandler) List(w http.ResponseWriter, r *http.Request) {
	stages := workflow.AllStages()
	out := make([]workflow.StageDescriptor, 0, len(stages))
	for _, s := range stages {
		out = append(out, workflow.MustStageDescriptor(s))
	}
	respondJSON(w, http.StatusOK, out)
}

// Get godoc
// @Summary Get a stage
// @Tags Stages
// @Produce json
// @Param stage path string true "Stage value, e.g. dispatch-planning"
// @Success 200 {object} workflow.StageDescriptor
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /stages/{stage} [get]
func (h *StageHandler) Get(w http.ResponseWriter, r *http.Request) {
	desc, err := workflow.GetStageDescriptor(workflow.Stage(chi.URLParam(r, "stage")))
	if err != nil {
		respondError(w, h.logger, err, "get stage")
		return
	}
	respondJSON(w, http.StatusOK, desc)
}
