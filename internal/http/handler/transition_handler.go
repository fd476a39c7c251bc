package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/http/middleware"
	"github.com/woodcraft-crm/leadflow-api/internal/mapper"
	"github.com/woodcraft-crm/leadflow-api/internal/service"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

// TransitionHandler exposes the two-step transition flow: begin returns an
// intent with a confirmation prompt, confirm applies it
type TransitionHandler struct {
	orchestrator *workflow.Orchestrator
	leadService  *service.LeadService
	logger       *zap.Logger
}

func NewTransitionHandler(orchestrator *workflow.Orchestrator, leadService *service.LeadService, logger *zap.Logger) *TransitionHandler {
	return &TransitionHandler{
		orchestrator: orchestrator,
		leadService:  leadService,
		logger:       logger,
	}
}

// BeginStage godoc
// @Summary Request a stage move
// @Description Checks readiness and capability for moving the lead to its next stage and returns an intent awaiting confirmation
// @Tags Transitions
// @Accept json
// @Produce json
// @Param id path int true "Lead ID"
// @Param request body domain.StageTransitionRequest false "Stage form payload"
// @Success 201 {object} domain.IntentDTO
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Readiness blocked or transition in flight"
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/stage-transitions [post]
func (h *TransitionHandler) BeginStage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}

	var req domain.StageTransitionRequest
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &req) {
		return
	}

	intent, err := h.orchestrator.BeginStageTransition(r.Context(), actor, id, req.Payload)
	if err != nil {
		respondError(w, h.logger, err, "start stage transition")
		return
	}
	respondJSON(w, http.StatusCreated, mapper.ToIntentDTO(intent, workflow.StateConfirmPending))
}

// BeginStatus godoc
// @Summary Request an activity status change
// @Description Validates the remark and due date for a hold, lost proposal, approval or revert and returns an intent awaiting confirmation
// @Tags Transitions
// @Accept json
// @Produce json
// @Param id path int true "Lead ID"
// @Param request body domain.StatusTransitionRequest true "Target status"
// @Success 201 {object} domain.IntentDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 422 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/status-transitions [post]
func (h *TransitionHandler) BeginStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}
	var req domain.StatusTransitionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var due *time.Time
	if req.DueDate != "" {
		// validated as YYYY-MM-DD above
		d, _ := time.Parse("2006-01-02", req.DueDate)
		due = &d
	}

	intent, err := h.orchestrator.BeginStatusTransition(r.Context(), actor, id, req.Status, strings.TrimSpace(req.Remark), due)
	if err != nil {
		respondError(w, h.logger, err, "start status change")
		return
	}
	respondJSON(w, http.StatusCreated, mapper.ToIntentDTO(intent, workflow.StateConfirmPending))
}

// Confirm godoc
// @Summary Confirm a pending transition
// @Description Applies the intent. On success the X-Navigate-To header names the listing to open next.
// @Tags Transitions
// @Produce json
// @Param intentId path string true "Intent ID"
// @Success 200 {object} domain.TransitionResultDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 410 {object} domain.APIError
// @Failure 502 {object} domain.APIError "Mutation rejected; the intent stays pending"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /intents/{intentId}/confirm [post]
func (h *TransitionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	intentID, ok := intentIDParam(w, r)
	if !ok {
		return
	}

	out, err := h.orchestrator.Confirm(r.Context(), actor, intentID)
	if err != nil {
		respondError(w, h.logger, err, "confirm transition")
		return
	}

	result := domain.TransitionResultDTO{
		State:       out.State,
		Message:     out.Message,
		NavigateTo:  out.NavigateTo,
		Invalidated: out.Invalidated,
	}
	if lead, err := h.leadService.GetByID(r.Context(), actor, out.Intent.LeadID); err == nil {
		result.Lead = lead
	} else {
		h.logger.Warn("failed to reload lead after transition",
			zap.Int64("lead_id", out.Intent.LeadID),
			zap.Error(err),
		)
	}

	if target := middleware.NavigationTarget(r.Context()); target != "" {
		w.Header().Set(middleware.NavigateToHeader, target)
	} else if out.NavigateTo != "" {
		w.Header().Set(middleware.NavigateToHeader, out.NavigateTo)
	}
	respondJSON(w, http.StatusOK, result)
}

// Cancel godoc
// @Summary Cancel a pending transition
// @Tags Transitions
// @Param intentId path string true "Intent ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /intents/{intentId} [delete]
func (h *TransitionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	intentID, ok := intentIDParam(w, r)
	if !ok {
		return
	}

	if err := h.orchestrator.Cancel(actor, intentID); err != nil {
		respondError(w, h.logger, err, "cancel transition")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Flow godoc
// @Summary Transition flow state for a lead
// @Tags Transitions
// @Produce json
// @Param id path int true "Lead ID"
// @Success 200 {object} domain.FlowStateDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/flow [get]
func (h *TransitionHandler) Flow(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}
	// scope check: the lead must belong to the actor's vendor
	if _, err := h.leadService.Lead(r.Context(), actor.VendorID, id); err != nil {
		respondError(w, h.logger, err, "load transition state")
		return
	}

	state := h.orchestrator.State(id)
	dto := domain.FlowStateDTO{LeadID: id, State: state}
	if in, ok := h.orchestrator.PendingIntent(id); ok {
		intentDTO := mapper.ToIntentDTO(&in, state)
		dto.Intent = &intentDTO
	}
	respondJSON(w, http.StatusOK, dto)
}

func intentIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "intentId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid intent ID")
		return uuid.Nil, false
	}
	return id, true
}
