package handler

import (
	"net/http"

	"github.com/woodcraft-crm/leadflow-api/internal/service"
	"go.uber.org/zap"
)

// AuditHandler exposes the audit trail of a lead
type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// ListForLead godoc
// @Summary Lead audit trail
// @Description Mutations recorded against a lead, newest first. Admin only.
// @Tags Audit
// @Produce json
// @Param id path int true "Lead ID"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.AuditLogDTO}
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id}/audit [get]
func (h *AuditHandler) ListForLead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}

	page, pageSize := pagination(r)
	result, err := h.auditService.ListForLead(r.Context(), actor, id, page, pageSize)
	if err != nil {
		respondError(w, h.logger, err, "list audit logs")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
