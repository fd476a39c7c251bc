package mapper

import (
	"time"

	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
)

const (
	timestampLayout = "2006-01-02T15:04:05Z"
	dateLayout      = "2006-01-02"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// ToLeadDTO converts Lead to LeadDTO
func ToLeadDTO(lead *domain.Lead) domain.LeadDTO {
	dto := domain.LeadDTO{
		ID:             lead.ID,
		LeadCode:       lead.LeadCode,
		AccountID:      lead.AccountID,
		Stage:          lead.Stage,
		ActivityStatus: lead.ActivityStatus,
		IsDraft:        lead.IsDraft,
		CustomerName:   lead.CustomerName,
		Phone:          lead.Phone,
		Email:          lead.Email,
		City:           lead.City,
		Address:        lead.Address,
		ProjectValue:   lead.ProjectValue,
		AssignedTo:     lead.AssignedTo,
		AssignedToName: lead.AssignedToName,
		CreatedByName:  lead.CreatedByName,
		StatusRemark:   lead.StatusRemark,
		HoldDueDate:    formatDate(lead.HoldDueDate),
		CreatedAt:      formatTime(lead.CreatedAt),
		UpdatedAt:      formatTime(lead.UpdatedAt),
	}

	// Leads carrying a stage outside the registry still render, without navigation hints
	if d, err := workflow.GetStageDescriptor(lead.Stage); err == nil {
		dto.StageLabel = d.Label
		dto.DefaultTabID = d.DefaultTabID
	}
	return dto
}

// ToLeadDTOs converts a slice of leads
func ToLeadDTOs(leads []domain.Lead) []domain.LeadDTO {
	out := make([]domain.LeadDTO, len(leads))
	for i := range leads {
		out[i] = ToLeadDTO(&leads[i])
	}
	return out
}

// ToIntentDTO converts a pending orchestrator intent
func ToIntentDTO(in *workflow.Intent, state workflow.FlowState) domain.IntentDTO {
	return domain.IntentDTO{
		IntentID:     in.ID,
		Kind:         in.Kind,
		State:        state,
		LeadID:       in.LeadID,
		From:         in.Stage,
		To:           in.To,
		FromStatus:   in.FromStatus,
		ToStatus:     in.ToStatus,
		Confirmation: in.Confirmation,
		ExpiresAt:    formatTime(in.ExpiresAt),
	}
}

// ToStageHistoryDTO converts LeadStageHistory
func ToStageHistoryDTO(h *domain.LeadStageHistory) domain.StageHistoryDTO {
	return domain.StageHistoryDTO{
		ID:            h.ID,
		FromStage:     h.FromStage,
		ToStage:       h.ToStage,
		ChangedByName: h.ChangedByName,
		Payload:       h.Payload,
		ChangedAt:     formatTime(h.CreatedAt),
	}
}

// ToStatusHistoryDTO converts LeadStatusHistory
func ToStatusHistoryDTO(h *domain.LeadStatusHistory) domain.StatusHistoryDTO {
	return domain.StatusHistoryDTO{
		ID:            h.ID,
		FromStatus:    h.FromStatus,
		ToStatus:      h.ToStatus,
		Remark:        h.Remark,
		DueDate:       formatDate(h.DueDate),
		ChangedByName: h.ChangedByName,
		ChangedAt:     formatTime(h.CreatedAt),
	}
}

// ToDocumentDTO converts LeadDocument
func ToDocumentDTO(doc *domain.LeadDocument) domain.DocumentDTO {
	return domain.DocumentDTO{
		ID:          doc.ID,
		LeadID:      doc.LeadID,
		Stage:       doc.Stage,
		Category:    doc.Category,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Size:        doc.Size,
		UploadedBy:  doc.UploadedByName,
		CreatedAt:   formatTime(doc.CreatedAt),
	}
}

// ToNotificationDTO converts Notification
func ToNotificationDTO(n *domain.Notification) domain.NotificationDTO {
	dto := domain.NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		LeadID:    n.LeadID,
		CreatedAt: formatTime(n.CreatedAt),
	}
	if n.ReadAt != nil {
		dto.ReadAt = formatTime(*n.ReadAt)
	}
	return dto
}

func ToAuditLogDTO(a *domain.AuditLog) domain.AuditLogDTO {
	return domain.AuditLogDTO{
		ID:          a.ID,
		Action:      a.Action,
		EntityType:  a.EntityType,
		EntityID:    a.EntityID,
		LeadID:      a.LeadID,
		UserID:      a.UserID,
		UserName:    a.UserName,
		Role:        string(a.Role),
		NewValues:   a.NewValues,
		Route:       a.Route,
		RequestID:   a.RequestID,
		PerformedAt: formatTime(a.PerformedAt),
	}
}
