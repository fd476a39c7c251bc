package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

var leadSortFields = map[string]string{
	"updatedAt":    "updated_at",
	"createdAt":    "created_at",
	"leadCode":     "lead_code",
	"customerName": "customer_name",
	"projectValue": "project_value",
	"city":         "city",
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

// GetByID returns a live lead of the vendor or gorm.ErrRecordNotFound
func (r *LeadRepository) GetByID(ctx context.Context, vendorID uuid.UUID, id int64) (*domain.Lead, error) {
	var lead domain.Lead
	query := ApplyVendorFilter(r.db.WithContext(ctx), vendorID)
	if err := query.First(&lead, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

// List returns a page of leads matching filters
func (r *LeadRepository) List(ctx context.Context, vendorID uuid.UUID, filters domain.LeadFilters, page, pageSize int, sort SortConfig) ([]domain.Lead, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	query := ApplyVendorFilter(r.db.WithContext(ctx).Model(&domain.Lead{}), vendorID)
	if filters.Stage != "" {
		query = query.Where("stage = ?", filters.Stage)
	}
	if filters.Status != "" {
		query = query.Where("activity_status = ?", filters.Status)
	}
	if filters.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filters.AssignedTo)
	}
	if s := strings.TrimSpace(filters.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(customer_name) LIKE ? OR LOWER(lead_code) LIKE ? OR LOWER(city) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	var leads []domain.Lead
	err := query.
		Order(BuildOrderClause(sort, leadSortFields, "updated_at")).
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&leads).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, total, nil
}

// Update saves the editable fields of lead. Stage, activity status, lead code
// and vendor are never written here.
func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ? AND vendor_id = ?", lead.ID, lead.VendorID).
		Select("customer_name", "account_id", "phone", "email", "city", "address",
			"project_value", "assigned_to", "assigned_to_name", "is_draft", "updated_at").
		Updates(map[string]interface{}{
			"customer_name":    lead.CustomerName,
			"account_id":       lead.AccountID,
			"phone":            lead.Phone,
			"email":            lead.Email,
			"city":             lead.City,
			"address":          lead.Address,
			"project_value":    lead.ProjectValue,
			"assigned_to":      lead.AssignedTo,
			"assigned_to_name": lead.AssignedToName,
			"is_draft":         lead.IsDraft,
			"updated_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update lead: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SoftDelete marks the lead deleted
func (r *LeadRepository) SoftDelete(ctx context.Context, vendorID uuid.UUID, id int64) error {
	result := ApplyVendorFilter(r.db.WithContext(ctx), vendorID).Delete(&domain.Lead{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete lead: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// StageStatusCount is one (stage, status) bucket
type StageStatusCount struct {
	Stage          workflow.Stage
	ActivityStatus workflow.ActivityStatus
	Count          int64
}

// CountByStageAndStatus groups the vendor's live leads by stage and status
func (r *LeadRepository) CountByStageAndStatus(ctx context.Context, vendorID uuid.UUID) ([]StageStatusCount, error) {
	var rows []StageStatusCount
	err := ApplyVendorFilter(r.db.WithContext(ctx).Model(&domain.Lead{}), vendorID).
		Select("stage, activity_status, COUNT(*) as count").
		Group("stage, activity_status").
		Order("stage, activity_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	return rows, nil
}

// CountOverdueHolds counts on-hold leads whose due date is on or before day
func (r *LeadRepository) CountOverdueHolds(ctx context.Context, vendorID uuid.UUID, day time.Time) (int64, error) {
	var count int64
	err := ApplyVendorFilter(r.db.WithContext(ctx).Model(&domain.Lead{}), vendorID).
		Where("activity_status = ? AND hold_due_date <= ?", workflow.StatusOnHold, day).
		Count(&count).Error
	return count, err
}

// ListDueHolds returns on-hold leads across vendors whose due date has passed
// and which have not been reminded since remindedBefore
func (r *LeadRepository) ListDueHolds(ctx context.Context, day, remindedBefore time.Time, limit int) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := r.db.WithContext(ctx).
		Where("activity_status = ? AND hold_due_date <= ?", workflow.StatusOnHold, day).
		Where("hold_reminded_at IS NULL OR hold_reminded_at < ?", remindedBefore).
		Order("hold_due_date ASC, id ASC").
		Limit(limit).
		Find(&leads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due holds: %w", err)
	}
	return leads, nil
}

// MarkHoldReminded stamps the reminder time
func (r *LeadRepository) MarkHoldReminded(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ?", id).
		UpdateColumn("hold_reminded_at", at).Error
}
