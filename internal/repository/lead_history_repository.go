package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"gorm.io/gorm"
)

type LeadHistoryRepository struct {
	db *gorm.DB
}

func NewLeadHistoryRepository(db *gorm.DB) *LeadHistoryRepository {
	return &LeadHistoryRepository{db: db}
}

// StageHistory returns the stage moves of a lead, newest first
func (r *LeadHistoryRepository) StageHistory(ctx context.Context, vendorID uuid.UUID, leadID int64) ([]domain.LeadStageHistory, error) {
	var history []domain.LeadStageHistory
	err := ApplyVendorFilter(r.db.WithContext(ctx), vendorID).
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Find(&history).Error
	return history, err
}

// StatusHistory returns the activity status changes of a lead, newest first
func (r *LeadHistoryRepository) StatusHistory(ctx context.Context, vendorID uuid.UUID, leadID int64) ([]domain.LeadStatusHistory, error) {
	var history []domain.LeadStatusHistory
	err := ApplyVendorFilter(r.db.WithContext(ctx), vendorID).
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Find(&history).Error
	return history, err
}
