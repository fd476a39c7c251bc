package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/woodcraft-crm/leadflow-api/internal/repository"
	"go.uber.org/zap"
)

// LeadCodePrefix starts every lead code
const LeadCodePrefix = "LD"

// NumberSequenceService generates lead codes.
//
// Format: LD-{YEAR}-{SEQUENCE}, sequence per vendor and year, e.g. LD-2026-007
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewNumberSequenceService(repo *repository.NumberSequenceRepository, logger *zap.Logger) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// GenerateLeadCode reserves the vendor's next lead code
func (s *NumberSequenceService) GenerateLeadCode(ctx context.Context, vendorID uuid.UUID) (string, error) {
	year := s.now().Year()

	nextSeq, err := s.repo.GetNextNumber(ctx, vendorID, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("vendor_id", vendorID.String()),
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate lead code: %w", err)
	}

	code := fmt.Sprintf("%s-%d-%03d", LeadCodePrefix, year, nextSeq)
	s.logger.Debug("generated lead code", zap.String("lead_code", code))
	return code, nil
}
