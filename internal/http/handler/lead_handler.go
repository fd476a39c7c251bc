package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/service"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

type LeadHandler struct {
	leadService *service.LeadService
	logger      *zap.Logger
}

func NewLeadHandler(leadService *service.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		logger:      logger,
	}
}

// Create godoc
// @Summary Create lead
// @Description Registers a lead in the first pipeline stage with a generated lead code
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body domain.CreateLeadRequest true "Lead data"
// @Success 201 {object} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads [post]
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.CreateLeadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lead, err := h.leadService.Create(r.Context(), actor, &req)
	if err != nil {
		respondError(w, h.logger, err, "create lead")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/leads/%d", lead.ID))
	respondJSON(w, http.StatusCreated, lead)
}

// List godoc
// @Summary List leads
// @Description Stage listings and pending status listings. Status defaults to active.
// @Tags Leads
// @Produce json
// @Param stage query string false "Stage, as wire value or listing key"
// @Param status query string false "Activity status" Enums(active, onHold, lostApproval, lost)
// @Param assignedTo query string false "Assignee user ID"
// @Param search query string false "Matches customer name, lead code or city"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.LeadPage
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads [get]
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filters := domain.LeadFilters{
		Status: workflow.ActivityStatus(q.Get("status")),
		Search: strings.TrimSpace(q.Get("search")),
	}
	if v := q.Get("stage"); v != "" {
		stage, err := workflow.ParseStage(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		filters.Stage = stage
	}
	if filters.Status != "" && !filters.Status.IsValid() {
		respondWithError(w, http.StatusBadRequest, "Invalid status: must be one of active, onHold, lostApproval, lost")
		return
	}
	if v := q.Get("assignedTo"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid assignedTo user ID")
			return
		}
		filters.AssignedTo = &id
	}

	page, pageSize := pagination(r)
	result, err := h.leadService.List(r.Context(), actor, filters, page, pageSize)
	if err != nil {
		respondError(w, h.logger, err, "list leads")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Stats godoc
// @Summary Lead counts
// @Tags Leads
// @Produce json
// @Success 200 {object} domain.LeadStatsDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/stats [get]
func (h *LeadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	stats, err := h.leadService.Stats(r.Context(), actor)
	if err != nil {
		respondError(w, h.logger, err, "count leads")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetByID godoc
// @Summary Get lead
// @Tags Leads
// @Produce json
// @Param id path int true "Lead ID"
// @Success 200 {object} domain.LeadDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id} [get]
func (h *LeadHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}

	lead, err := h.leadService.GetByID(r.Context(), actor, id)
	if err != nil {
		respondError(w, h.logger, err, "get lead")
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

// Update godoc
// @Summary Update lead
// @Description Edits customer and assignment fields. Stage and status change only through transitions.
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path int true "Lead ID"
// @Param request body domain.UpdateLeadRequest true "Changed fields"
// @Success 200 {object} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id} [put]
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}
	var req domain.UpdateLeadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lead, err := h.leadService.Update(r.Context(), actor, id, &req)
	if err != nil {
		respondError(w, h.logger, err, "update lead")
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

// Delete godoc
// @Summary Delete lead
// @Tags Leads
// @Param id path int true "Lead ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id} [delete]
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}

	if err := h.leadService.Delete(r.Context(), actor, id); err != nil {
		respondError(w, h.logger, err, "delete lead")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History godoc
// @Summary Lead history
// @Description Stage moves and activity status changes, newest first
// @Tags Leads
// @Produce json
// @Param id path int true "Lead ID"
// @Success 200 {object} domain.LeadHistoryDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/history [get]
func (h *LeadHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}

	history, err := h.leadService.History(r.Context(), actor, id)
	if err != nil {
		respondError(w, h.logger, err, "load lead history")
		return
	}
	respondJSON(w, http.StatusOK, history)
}
