package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"gorm.io/gorm"
)

// AuditLogFilter narrows an audit log listing
type AuditLogFilter struct {
	LeadID     *int64
	UserID     *uuid.UUID
	Action     domain.AuditAction
	EntityType string
	Since      *time.Time
}

// AuditLogRepository handles audit log data access
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create inserts an audit entry. Entries are never updated.
func (r *AuditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns a vendor's audit entries, newest first
func (r *AuditLogRepository) List(ctx context.Context, vendorID uuid.UUID, filter AuditLogFilter, page, pageSize int) ([]domain.AuditLog, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	query := ApplyVendorFilter(r.db.WithContext(ctx).Model(&domain.AuditLog{}), vendorID)
	if filter.LeadID != nil {
		query = query.Where("lead_id = ?", *filter.LeadID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.Since != nil {
		query = query.Where("performed_at >= ?", *filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []domain.AuditLog
	err := query.
		Order("performed_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error
	return logs, total, err
}
