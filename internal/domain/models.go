package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"gorm.io/gorm"
)

// BaseModel carries a UUID primary key generated on insert
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an ID when none was set
func (b *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Lead is a customer order moving through the manufacturing pipeline
type Lead struct {
	ID             int64                   `gorm:"primaryKey;autoIncrement"`
	LeadCode       string                  `gorm:"type:varchar(30);not null;uniqueIndex;column:lead_code"`
	VendorID       uuid.UUID               `gorm:"type:uuid;not null;index;column:vendor_id"`
	AccountID      string                  `gorm:"type:varchar(100);column:account_id"`
	Stage          workflow.Stage          `gorm:"type:varchar(50);not null;index"`
	ActivityStatus workflow.ActivityStatus `gorm:"type:varchar(30);not null;default:'active';index;column:activity_status"`
	IsDraft        bool                    `gorm:"not null;default:false;column:is_draft"`
	CustomerName   string                  `gorm:"type:varchar(200);not null;column:customer_name"`
	Phone          string                  `gorm:"type:varchar(40)"`
	Email          string                  `gorm:"type:varchar(255)"`
	City           string                  `gorm:"type:varchar(100)"`
	Address        string                  `gorm:"type:varchar(500)"`
	ProjectValue   float64                 `gorm:"type:decimal(15,2);not null;default:0;column:project_value"`
	AssignedTo     *uuid.UUID              `gorm:"type:uuid;index;column:assigned_to"`
	AssignedToName string                  `gorm:"type:varchar(200);column:assigned_to_name"`
	CreatedByID    uuid.UUID               `gorm:"type:uuid;column:created_by_id"`
	CreatedByName  string                  `gorm:"type:varchar(200);column:created_by_name"`
	StatusRemark   string                  `gorm:"type:varchar(1000);column:status_remark"`
	HoldDueDate    *time.Time              `gorm:"type:date;column:hold_due_date"`
	HoldRemindedAt *time.Time              `gorm:"column:hold_reminded_at"`
	CreatedAt      time.Time               `gorm:"not null"`
	UpdatedAt      time.Time               `gorm:"not null"`
	DeletedAt      gorm.DeletedAt          `gorm:"index"`
}

// State projects the lead into the workflow view
func (l *Lead) State() workflow.LeadState {
	return workflow.LeadState{
		ID:             l.ID,
		LeadCode:       l.LeadCode,
		VendorID:       l.VendorID,
		AccountID:      l.AccountID,
		Stage:          l.Stage,
		ActivityStatus: l.ActivityStatus,
		IsDraft:        l.IsDraft,
		AssignedTo:     l.AssignedTo,
		HoldDueDate:    l.HoldDueDate,
	}
}

// Flags returns the properties auto-prompting depends on, evaluated at now
func (l *Lead) Flags(now time.Time) workflow.LeadFlags {
	return workflow.LeadFlags{
		IsDraft:     l.IsDraft,
		HoldDue:     l.HoldDueDate != nil && !l.HoldDueDate.After(now),
		HasAssignee: l.AssignedTo != nil,
	}
}

// LeadStageHistory records a completed stage move
type LeadStageHistory struct {
	BaseModel
	LeadID        int64          `gorm:"not null;index;column:lead_id"`
	VendorID      uuid.UUID      `gorm:"type:uuid;not null;column:vendor_id"`
	FromStage     workflow.Stage `gorm:"type:varchar(50);not null;column:from_stage"`
	ToStage       workflow.Stage `gorm:"type:varchar(50);not null;column:to_stage"`
	ChangedByID   uuid.UUID      `gorm:"type:uuid;column:changed_by_id"`
	ChangedByName string         `gorm:"type:varchar(200);column:changed_by_name"`
	Payload       map[string]any `gorm:"type:jsonb;serializer:json"`
}

func (LeadStageHistory) TableName() string {
	return "lead_stage_history"
}

// LeadStatusHistory records an activity status change with its remark
type LeadStatusHistory struct {
	BaseModel
	LeadID        int64                   `gorm:"not null;index;column:lead_id"`
	VendorID      uuid.UUID               `gorm:"type:uuid;not null;column:vendor_id"`
	AccountID     string                  `gorm:"type:varchar(100);column:account_id"`
	FromStatus    workflow.ActivityStatus `gorm:"type:varchar(30);not null;column:from_status"`
	ToStatus      workflow.ActivityStatus `gorm:"type:varchar(30);not null;column:to_status"`
	Remark        string                  `gorm:"type:varchar(1000);not null"`
	DueDate       *time.Time              `gorm:"type:date;column:due_date"`
	ChangedByID   uuid.UUID               `gorm:"type:uuid;column:changed_by_id"`
	ChangedByName string                  `gorm:"type:varchar(200);column:changed_by_name"`
}

func (LeadStatusHistory) TableName() string {
	return "lead_status_history"
}

// LeadReadinessFact is the fact bag most recently pushed for a lead and stage
type LeadReadinessFact struct {
	BaseModel
	LeadID      int64          `gorm:"not null;uniqueIndex:idx_lead_readiness_stage;column:lead_id"`
	VendorID    uuid.UUID      `gorm:"type:uuid;not null;column:vendor_id"`
	Stage       workflow.Stage `gorm:"type:varchar(50);not null;uniqueIndex:idx_lead_readiness_stage"`
	Facts       workflow.Facts `gorm:"type:jsonb;serializer:json;not null"`
	UpdatedByID uuid.UUID      `gorm:"type:uuid;column:updated_by_id"`
}

// LeadDocument is a file uploaded against a lead in a given stage
type LeadDocument struct {
	BaseModel
	LeadID         int64          `gorm:"not null;index;column:lead_id"`
	VendorID       uuid.UUID      `gorm:"type:uuid;not null;column:vendor_id"`
	Stage          workflow.Stage `gorm:"type:varchar(50);not null"`
	Category       string         `gorm:"type:varchar(50);not null"`
	Filename       string         `gorm:"type:varchar(255);not null"`
	ContentType    string         `gorm:"type:varchar(100);column:content_type"`
	Size           int64          `gorm:"not null"`
	StoragePath    string         `gorm:"type:varchar(500);not null;column:storage_path"`
	UploadedByID   uuid.UUID      `gorm:"type:uuid;column:uploaded_by_id"`
	UploadedByName string         `gorm:"type:varchar(200);column:uploaded_by_name"`
}

// Notification types
const (
	NotificationTypeTransition   = "transition"
	NotificationTypeFailure      = "failure"
	NotificationTypeHoldReminder = "hold_reminder"
)

// Notification is an in-app message for a user
type Notification struct {
	BaseModel
	VendorID uuid.UUID  `gorm:"type:uuid;not null;index;column:vendor_id"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;index;column:user_id"`
	Type     string     `gorm:"type:varchar(50);not null"`
	Title    string     `gorm:"type:varchar(200);not null"`
	Message  string     `gorm:"type:varchar(500);not null"`
	Read     bool       `gorm:"column:read;not null;default:false;index"`
	ReadAt   *time.Time `gorm:"column:read_at"`
	LeadID   *int64     `gorm:"index;column:lead_id"`
}

// NumberSequence is the per-vendor, per-year lead code counter
type NumberSequence struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	VendorID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_number_sequence_vendor_year;column:vendor_id"`
	Year         int       `gorm:"not null;uniqueIndex:idx_number_sequence_vendor_year"`
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// AuditAction is the kind of change an audit entry records
type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionDelete  AuditAction = "delete"
	AuditActionConfirm AuditAction = "confirm"
)

// AuditLog is an append-only record of a successful API mutation and who made it
type AuditLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	VendorID    uuid.UUID      `gorm:"type:uuid;not null;index;column:vendor_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;column:user_id"`
	UserName    string         `gorm:"type:varchar(200);column:user_name"`
	Role        workflow.Role  `gorm:"type:varchar(30);column:role"`
	Action      AuditAction    `gorm:"type:varchar(20);not null"`
	EntityType  string         `gorm:"type:varchar(50);not null;column:entity_type"`
	EntityID    string         `gorm:"type:varchar(100);column:entity_id"`
	LeadID      *int64         `gorm:"index;column:lead_id"`
	NewValues   map[string]any `gorm:"type:jsonb;serializer:json;column:new_values"`
	IPAddress   string         `gorm:"type:varchar(64);column:ip_address"`
	UserAgent   string         `gorm:"type:text;column:user_agent"`
	RequestID   string         `gorm:"type:varchar(100);column:request_id"`
	Route       string         `gorm:"type:varchar(200)"`
	PerformedAt time.Time      `gorm:"not null;index;column:performed_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate assigns an ID and timestamp when none was set
func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.PerformedAt.IsZero() {
		a.PerformedAt = time.Now().UTC()
	}
	return nil
}
