package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/mapper"
	"github.com/woodcraft-crm/leadflow-api/internal/repository"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

// redactedFields never reach the audit trail
var redactedFields = []string{"password", "secret", "token", "apikey"}

// AuditLogService records who changed what
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	leads     *LeadService
	logger    *zap.Logger
}

func NewAuditLogService(auditRepo *repository.AuditLogRepository, leads *LeadService, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		leads:     leads,
		logger:    logger,
	}
}

// RequestMeta identifies the request behind an audit entry
type RequestMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
	Route     string
}

// LogEntry is the input for one audit entry
type LogEntry struct {
	Action     domain.AuditAction
	EntityType string
	EntityID   string
	LeadID     *int64
	NewValues  map[string]any
}

// Log writes an audit entry for actor
func (s *AuditLogService) Log(ctx context.Context, actor workflow.ActorContext, meta RequestMeta, entry LogEntry) error {
	record := &domain.AuditLog{
		VendorID:   actor.VendorID,
		UserID:     actor.UserID,
		UserName:   actor.Name,
		Role:       actor.Role,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		LeadID:     entry.LeadID,
		NewValues:  redact(entry.NewValues),
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		RequestID:  meta.RequestID,
		Route:      meta.Route,
	}

	if err := s.auditRepo.Create(ctx, record); err != nil {
		s.logger.Error("failed to create audit log",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err))
		return err
	}
	return nil
}

// ListForLead returns the audit trail of one lead, newest first
func (s *AuditLogService) ListForLead(ctx context.Context, actor workflow.ActorContext, leadID int64, page, pageSize int) (*domain.PaginatedResponse, error) {
	if !actor.Can(workflow.CapViewAudit) {
		return nil, ErrForbidden
	}
	if _, err := s.leads.Entity(ctx, actor.VendorID, leadID); err != nil {
		return nil, err
	}

	page, pageSize = repository.NormalizePage(page, pageSize)
	logs, total, err := s.auditRepo.List(ctx, actor.VendorID, repository.AuditLogFilter{LeadID: &leadID}, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	dtos := make([]domain.AuditLogDTO, len(logs))
	for i := range logs {
		dtos[i] = mapper.ToAuditLogDTO(&logs[i])
	}
	resp := paginated(dtos, total, page, pageSize)
	return &resp, nil
}

func redact(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		lower := strings.ToLower(k)
		skip := false
		for _, f := range redactedFields {
			if lower == f {
				skip = true
				break
			}
		}
		if !skip {
			out[k] = v
		}
	}
	return out
}
