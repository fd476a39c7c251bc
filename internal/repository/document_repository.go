package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"gorm.io/gorm"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.LeadDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) GetByID(ctx context.Context, vendorID uuid.UUID, id uuid.UUID) (*domain.LeadDocument, error) {
	var doc domain.LeadDocument
	err := ApplyVendorFilter(r.db.WithContext(ctx), vendorID).First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByLead returns a lead's documents, newest first
func (r *DocumentRepository) ListByLead(ctx context.Context, vendorID uuid.UUID, leadID int64) ([]domain.LeadDocument, error) {
	var docs []domain.LeadDocument
	err := ApplyVendorFilter(r.db.WithContext(ctx), vendorID).
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

// CountByCategory counts a lead's documents of one category uploaded in stage
func (r *DocumentRepository) CountByCategory(ctx context.Context, leadID int64, stage workflow.Stage, category string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.LeadDocument{}).
		Where("lead_id = ? AND stage = ? AND category = ?", leadID, stage, category).
		Count(&count).Error
	return count, err
}

func (r *DocumentRepository) Delete(ctx context.Context, vendorID uuid.UUID, id uuid.UUID) error {
	return ApplyVendorFilter(r.db.WithContext(ctx), vendorID).Delete(&domain.LeadDocument{}, "id = ?", id).Error
}
