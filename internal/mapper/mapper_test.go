package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/mapper"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
)

func TestToLeadDTO(t *testing.T) {
	created := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	assignee := uuid.New()

	lead := &domain.Lead{
		ID:             12,
		LeadCode:       "LD-2026-0012",
		AccountID:      "ACC-9",
		Stage:          workflow.StageDispatchPlanning,
		ActivityStatus: workflow.StatusOnHold,
		CustomerName:   "Meera Rao",
		City:           "Pune",
		ProjectValue:   450000,
		AssignedTo:     &assignee,
		AssignedToName: "Ina",
		HoldDueDate:    &due,
		CreatedAt:      created,
		UpdatedAt:      created,
	}

	dto := mapper.ToLeadDTO(lead)

	assert.Equal(t, int64(12), dto.ID)
	assert.Equal(t, "LD-2026-0012", dto.LeadCode)
	assert.Equal(t, "Dispatch Planning", dto.StageLabel)
	assert.Equal(t, "dispatch-planning", dto.DefaultTabID)
	assert.Equal(t, workflow.StatusOnHold, dto.ActivityStatus)
	assert.Equal(t, "2026-04-01", dto.HoldDueDate)
	assert.Equal(t, "2026-03-04T10:30:00Z", dto.CreatedAt)
	assert.Equal(t, &assignee, dto.AssignedTo)
}

func TestToLeadDTO_UnknownStage(t *testing.T) {
	dto := mapper.ToLeadDTO(&domain.Lead{ID: 1, Stage: workflow.Stage("legacy")})
	assert.Equal(t, workflow.Stage("legacy"), dto.Stage)
	assert.Empty(t, dto.StageLabel)
	assert.Empty(t, dto.HoldDueDate)
}

func TestToIntentDTO(t *testing.T) {
	in := &workflow.Intent{
		ID:           uuid.New(),
		Kind:         workflow.IntentStage,
		LeadID:       3,
		Stage:        workflow.StageSiteReadiness,
		To:           workflow.StageDispatchPlanning,
		Confirmation: "Move lead LD-2026-0003 to Dispatch Planning?",
		ExpiresAt:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	dto := mapper.ToIntentDTO(in, workflow.StateConfirmPending)
	assert.Equal(t, in.ID, dto.IntentID)
	assert.Equal(t, workflow.StateConfirmPending, dto.State)
	assert.Equal(t, workflow.StageSiteReadiness, dto.From)
	assert.Equal(t, workflow.StageDispatchPlanning, dto.To)
	assert.Equal(t, "2026-01-01T12:00:00Z", dto.ExpiresAt)
}

func TestToNotificationDTO(t *testing.T) {
	readAt := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	leadID := int64(5)
	n := &domain.Notification{
		BaseModel: domain.BaseModel{ID: uuid.New(), CreatedAt: readAt.Add(-time.Hour)},
		Type:      domain.NotificationTypeHoldReminder,
		Title:     "Hold due",
		Message:   "Lead LD-2026-0005 is due to resume",
		Read:      true,
		ReadAt:    &readAt,
		LeadID:    &leadID,
	}

	dto := mapper.ToNotificationDTO(n)
	assert.Equal(t, n.ID, dto.ID)
	assert.True(t, dto.Read)
	assert.Equal(t, "2026-02-02T08:00:00Z", dto.ReadAt)
	assert.Equal(t, &leadID, dto.LeadID)
}

func TestToStatusHistoryDTO(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	h := &domain.LeadStatusHistory{
		FromStatus: workflow.StatusActive,
		ToStatus:   workflow.StatusOnHold,
		Remark:     "site not ready",
		DueDate:    &due,
	}
	dto := mapper.ToStatusHistoryDTO(h)
	assert.Equal(t, "2026-05-01", dto.DueDate)
	assert.Equal(t, "site not ready", dto.Remark)
}
