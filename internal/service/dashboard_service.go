package service

import (
	"context"
	"fmt"
	"time"

	"github.com/woodcraft-crm/leadflow-api/internal/cache"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/repository"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

// DashboardService builds the per-department pipeline summaries
type DashboardService struct {
	leadRepo *repository.LeadRepository
	cache    cache.Store
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewDashboardService(leadRepo *repository.LeadRepository, store cache.Store, ttl time.Duration, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		leadRepo: leadRepo,
		cache:    store,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Department returns stage tiles for the department plus the vendor-wide
// lost-approval queue and overdue holds
func (s *DashboardService) Department(ctx context.Context, actor workflow.ActorContext, d workflow.Department) (*domain.DashboardDTO, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("%w: unknown department %q", ErrInvalidInput, d)
	}

	key := cache.Key(workflow.DashboardKey(d), actor.VendorID.String())
	dto, err := cache.Fetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) (domain.DashboardDTO, error) {
		return s.build(ctx, actor, d)
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *DashboardService) build(ctx context.Context, actor workflow.ActorContext, d workflow.Department) (domain.DashboardDTO, error) {
	rows, err := s.leadRepo.CountByStageAndStatus(ctx, actor.VendorID)
	if err != nil {
		return domain.DashboardDTO{}, err
	}
	type bucket struct{ active, onHold int64 }
	byStage := make(map[workflow.Stage]*bucket)
	var lostApproval int64
	for _, r := range rows {
		b, ok := byStage[r.Stage]
		if !ok {
			b = &bucket{}
			byStage[r.Stage] = b
		}
		switch r.ActivityStatus {
		case workflow.StatusActive:
			b.active += r.Count
		case workflow.StatusOnHold:
			b.onHold += r.Count
		case workflow.StatusLostApproval:
			lostApproval += r.Count
		}
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	overdue, err := s.leadRepo.CountOverdueHolds(ctx, actor.VendorID, today)
	if err != nil {
		return domain.DashboardDTO{}, fmt.Errorf("failed to count overdue holds: %w", err)
	}

	out := domain.DashboardDTO{
		Department:   d,
		LostApproval: lostApproval,
		OverdueHolds: overdue,
	}
	for _, stage := range workflow.StagesForDepartment(d) {
		desc := workflow.MustStageDescriptor(stage)
		tile := domain.DashboardStageDTO{
			Stage:       stage,
			Label:       desc.Label,
			ListingPath: desc.ListingPath,
		}
		if b, ok := byStage[stage]; ok {
			tile.Active = b.active
			tile.OnHold = b.onHold
		}
		out.Stages = append(out.Stages, tile)
	}
	return out, nil
}
