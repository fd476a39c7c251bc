package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"gorm.io/gorm"
)

// MoveStage advances the lead from m.From to m.To and records history in one
// transaction. The update only applies while the lead is still active in
// m.From, otherwise ErrStaleLead is returned and nothing is written.
func (r *LeadRepository) MoveStage(ctx context.Context, m workflow.StageMutation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Lead{}).
			Where("id = ? AND vendor_id = ? AND stage = ? AND activity_status = ?",
				m.LeadID, m.VendorID, m.From, workflow.StatusActive).
			Updates(map[string]interface{}{
				"stage":      m.To,
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to move lead stage: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrStaleLead
		}

		history := &domain.LeadStageHistory{
			LeadID:        m.LeadID,
			VendorID:      m.VendorID,
			FromStage:     m.From,
			ToStage:       m.To,
			ChangedByID:   m.UpdatedBy,
			ChangedByName: m.UpdatedByName,
			Payload:       m.Payload,
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to record stage history: %w", err)
		}
		return nil
	})
}

// SetActivityStatus applies m when the lead still carries m.From. Entering
// on-hold stores the due date; leaving it clears the due date and reminder stamp.
// Confirming a loss also parks the lead in the lost stage and records that move
// in the stage history.
func (r *LeadRepository) SetActivityStatus(ctx context.Context, m workflow.StatusMutation) error {
	updates := map[string]interface{}{
		"activity_status": m.Status,
		"status_remark":   m.Remark,
		"updated_at":      time.Now().UTC(),
	}
	if m.Status == workflow.StatusOnHold {
		updates["hold_due_date"] = m.DueDate
		updates["hold_reminded_at"] = nil
	} else {
		updates["hold_due_date"] = nil
		updates["hold_reminded_at"] = nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lostFrom workflow.Stage
		if m.Status == workflow.StatusLost {
			var current domain.Lead
			err := tx.Select("stage").
				Where("id = ? AND vendor_id = ? AND activity_status = ?", m.LeadID, m.VendorID, m.From).
				First(&current).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStaleLead
			}
			if err != nil {
				return fmt.Errorf("failed to load lead stage: %w", err)
			}
			lostFrom = current.Stage
			updates["stage"] = workflow.StageLost
		}

		result := tx.Model(&domain.Lead{}).
			Where("id = ? AND vendor_id = ? AND activity_status = ?", m.LeadID, m.VendorID, m.From).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to set activity status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrStaleLead
		}

		history := &domain.LeadStatusHistory{
			LeadID:        m.LeadID,
			VendorID:      m.VendorID,
			AccountID:     m.AccountID,
			FromStatus:    m.From,
			ToStatus:      m.Status,
			Remark:        m.Remark,
			DueDate:       m.DueDate,
			ChangedByID:   m.UserID,
			ChangedByName: m.CreatedBy,
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}

		if lostFrom != "" && lostFrom != workflow.StageLost {
			move := &domain.LeadStageHistory{
				LeadID:        m.LeadID,
				VendorID:      m.VendorID,
				FromStage:     lostFrom,
				ToStage:       workflow.StageLost,
				ChangedByID:   m.UserID,
				ChangedByName: m.CreatedBy,
				Payload:       map[string]any{"remark": m.Remark},
			}
			if err := tx.Create(move).Error; err != nil {
				return fmt.Errorf("failed to record stage history: %w", err)
			}
		}
		return nil
	})
}
