package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReadinessFactRepository struct {
	db *gorm.DB
}

func NewReadinessFactRepository(db *gorm.DB) *ReadinessFactRepository {
	return &ReadinessFactRepository{db: db}
}

// Upsert stores the fact bag for (lead, stage), replacing a previous one
func (r *ReadinessFactRepository) Upsert(ctx context.Context, fact *domain.LeadReadinessFact) error {
	fact.UpdatedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lead_id"}, {Name: "stage"}},
		DoUpdates: clause.AssignmentColumns([]string{"facts", "updated_by_id", "updated_at"}),
	}).Create(fact).Error
	if err != nil {
		return fmt.Errorf("failed to store readiness facts: %w", err)
	}
	return nil
}

// Get returns the stored facts for (lead, stage) or gorm.ErrRecordNotFound
func (r *ReadinessFactRepository) Get(ctx context.Context, leadID int64, stage workflow.Stage) (*domain.LeadReadinessFact, error) {
	var fact domain.LeadReadinessFact
	err := r.db.WithContext(ctx).
		Where("lead_id = ? AND stage = ?", leadID, stage).
		First(&fact).Error
	if err != nil {
		return nil, err
	}
	return &fact, nil
}
