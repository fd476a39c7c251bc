package domain

import (
	"github.com/google/uuid"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
)

// LeadDTO is the API representation of a lead
type LeadDTO struct {
	ID             int64                   `json:"id"`
	LeadCode       string                  `json:"leadCode"`
	AccountID      string                  `json:"accountId,omitempty"`
	Stage          workflow.Stage          `json:"stage"`
	StageLabel     string                  `json:"stageLabel"`
	DefaultTabID   string                  `json:"defaultTabId"`
	ActivityStatus workflow.ActivityStatus `json:"activityStatus"`
	IsDraft        bool                    `json:"isDraft"`
	CustomerName   string                  `json:"customerName"`
	Phone          string                  `json:"phone,omitempty"`
	Email          string                  `json:"email,omitempty"`
	City           string                  `json:"city,omitempty"`
	Address        string                  `json:"address,omitempty"`
	ProjectValue   float64                 `json:"projectValue"`
	AssignedTo     *uuid.UUID              `json:"assignedTo,omitempty"`
	AssignedToName string                  `json:"assignedToName,omitempty"`
	CreatedByName  string                  `json:"createdByName,omitempty"`
	StatusRemark   string                  `json:"statusRemark,omitempty"`
	HoldDueDate    string                  `json:"holdDueDate,omitempty"` // YYYY-MM-DD
	CreatedAt      string                  `json:"createdAt"`             // ISO 8601
	UpdatedAt      string                  `json:"updatedAt"`             // ISO 8601
}

// CreateLeadRequest registers a new lead in the open stage
type CreateLeadRequest struct {
	CustomerName   string     `json:"customerName" validate:"required,max=200"`
	AccountID      string     `json:"accountId" validate:"omitempty,max=100"`
	Phone          string     `json:"phone" validate:"omitempty,max=40"`
	Email          string     `json:"email" validate:"omitempty,email"`
	City           string     `json:"city" validate:"omitempty,max=100"`
	Address        string     `json:"address" validate:"omitempty,max=500"`
	ProjectValue   float64    `json:"projectValue" validate:"gte=0"`
	AssignedTo     *uuid.UUID `json:"assignedTo"`
	AssignedToName string     `json:"assignedToName" validate:"omitempty,max=200"`
	IsDraft        bool       `json:"isDraft"`
}

// UpdateLeadRequest edits mutable lead fields. Stage and status change only
// through transitions.
type UpdateLeadRequest struct {
	CustomerName   *string    `json:"customerName" validate:"omitempty,max=200"`
	AccountID      *string    `json:"accountId" validate:"omitempty,max=100"`
	Phone          *string    `json:"phone" validate:"omitempty,max=40"`
	Email          *string    `json:"email" validate:"omitempty,email"`
	City           *string    `json:"city" validate:"omitempty,max=100"`
	Address        *string    `json:"address" validate:"omitempty,max=500"`
	ProjectValue   *float64   `json:"projectValue" validate:"omitempty,gte=0"`
	AssignedTo     *uuid.UUID `json:"assignedTo"`
	AssignedToName *string    `json:"assignedToName" validate:"omitempty,max=200"`
	IsDraft        *bool      `json:"isDraft"`
}

// LeadFilters selects leads for a listing
type LeadFilters struct {
	Stage      workflow.Stage
	Status     workflow.ActivityStatus
	AssignedTo *uuid.UUID
	Search     string
}

// StageTransitionRequest carries the stage-specific form data for a move
type StageTransitionRequest struct {
	Payload map[string]any `json:"payload"`
}

// StatusTransitionRequest asks for an activity status change
type StatusTransitionRequest struct {
	Status  workflow.ActivityStatus `json:"status" validate:"required,oneof=active onHold lostApproval lost"`
	Remark  string                  `json:"remark"`
	DueDate string                  `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

// IntentDTO is a transition waiting for confirmation
type IntentDTO struct {
	IntentID     uuid.UUID               `json:"intentId"`
	Kind         workflow.IntentKind     `json:"kind"`
	State        workflow.FlowState      `json:"state"`
	LeadID       int64                   `json:"leadId"`
	From         workflow.Stage          `json:"from"`
	To           workflow.Stage          `json:"to,omitempty"`
	FromStatus   workflow.ActivityStatus `json:"fromStatus,omitempty"`
	ToStatus     workflow.ActivityStatus `json:"toStatus,omitempty"`
	Confirmation string                  `json:"confirmation"`
	ExpiresAt    string                  `json:"expiresAt"`
}

// TransitionResultDTO reports a confirmed transition
type TransitionResultDTO struct {
	State       workflow.FlowState `json:"state"`
	Message     string             `json:"message"`
	Lead        *LeadDTO           `json:"lead,omitempty"`
	NavigateTo  string             `json:"navigateTo,omitempty"`
	Invalidated []string           `json:"invalidated"`
}

// FlowStateDTO is the orchestrator view of a lead
type FlowStateDTO struct {
	LeadID int64              `json:"leadId"`
	State  workflow.FlowState `json:"state"`
	Intent *IntentDTO         `json:"intent,omitempty"`
}

// ReadinessDTO is the gate verdict for a lead's current stage
type ReadinessDTO struct {
	LeadID   int64             `json:"leadId"`
	Stage    workflow.Stage    `json:"stage"`
	Decision workflow.Decision `json:"decision"`
	Facts    *workflow.Facts   `json:"facts,omitempty"`
	Prompt   workflow.Prompt   `json:"prompt"`
}

// LeadStatsDTO counts leads per stage and per activity status
type LeadStatsDTO struct {
	Total    int64                             `json:"total"`
	ByStage  map[workflow.Stage]int64          `json:"byStage"`
	ByStatus map[workflow.ActivityStatus]int64 `json:"byStatus"`
}

// DashboardStageDTO is one stage tile on a department dashboard
type DashboardStageDTO struct {
	Stage       workflow.Stage `json:"stage"`
	Label       string         `json:"label"`
	ListingPath string         `json:"listingPath"`
	Active      int64          `json:"active"`
	OnHold      int64          `json:"onHold"`
}

// DashboardDTO summarizes a department's pipeline
type DashboardDTO struct {
	Department   workflow.Department `json:"department"`
	Stages       []DashboardStageDTO `json:"stages"`
	LostApproval int64               `json:"lostApproval"`
	OverdueHolds int64               `json:"overdueHolds"`
}

// StageHistoryDTO is one recorded stage move
type StageHistoryDTO struct {
	ID            uuid.UUID      `json:"id"`
	FromStage     workflow.Stage `json:"fromStage"`
	ToStage       workflow.Stage `json:"toStage"`
	ChangedByName string         `json:"changedByName,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	ChangedAt     string         `json:"changedAt"`
}

// StatusHistoryDTO is one recorded activity status change
type StatusHistoryDTO struct {
	ID            uuid.UUID               `json:"id"`
	FromStatus    workflow.ActivityStatus `json:"fromStatus"`
	ToStatus      workflow.ActivityStatus `json:"toStatus"`
	Remark        string                  `json:"remark"`
	DueDate       string                  `json:"dueDate,omitempty"`
	ChangedByName string                  `json:"changedByName,omitempty"`
	ChangedAt     string                  `json:"changedAt"`
}

// LeadHistoryDTO combines stage and status history, newest first
type LeadHistoryDTO struct {
	Stages   []StageHistoryDTO  `json:"stages"`
	Statuses []StatusHistoryDTO `json:"statuses"`
}

// DocumentDTO describes an uploaded lead document
type DocumentDTO struct {
	ID          uuid.UUID      `json:"id"`
	LeadID      int64          `json:"leadId"`
	Stage       workflow.Stage `json:"stage"`
	Category    string         `json:"category"`
	Filename    string         `json:"filename"`
	ContentType string         `json:"contentType"`
	Size        int64          `json:"size"`
	UploadedBy  string         `json:"uploadedBy,omitempty"`
	CreatedAt   string         `json:"createdAt"`
}

type NotificationDTO struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	LeadID    *int64    `json:"leadId,omitempty"`
	CreatedAt string    `json:"createdAt"`
	ReadAt    string    `json:"readAt,omitempty"`
}

// AuditLogDTO is an audit trail entry
type AuditLogDTO struct {
	ID          uuid.UUID      `json:"id"`
	Action      AuditAction    `json:"action"`
	EntityType  string         `json:"entityType"`
	EntityID    string         `json:"entityId,omitempty"`
	LeadID      *int64         `json:"leadId,omitempty"`
	UserID      uuid.UUID      `json:"userId"`
	UserName    string         `json:"userName"`
	Role        string         `json:"role"`
	NewValues   map[string]any `json:"newValues,omitempty"`
	Route       string         `json:"route"`
	RequestID   string         `json:"requestId,omitempty"`
	PerformedAt string         `json:"performedAt"`
}

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// LeadPage is a page of leads. It is cached as is, so its data stays typed.
type LeadPage struct {
	Data       []LeadDTO `json:"data"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
}
