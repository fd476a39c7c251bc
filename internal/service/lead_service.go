package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/woodcraft-crm/leadflow-api/internal/cache"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/mapper"
	"github.com/woodcraft-crm/leadflow-api/internal/repository"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeadService owns lead reads and writes. It is also the lead reader and the
// stage and status mutator of the transition orchestrator.
type LeadService struct {
	leadRepo    *repository.LeadRepository
	historyRepo *repository.LeadHistoryRepository
	numbers     *NumberSequenceService
	cache       cache.Store
	inv         invalidator
	ttl         time.Duration
	logger      *zap.Logger
}

func NewLeadService(
	leadRepo *repository.LeadRepository,
	historyRepo *repository.LeadHistoryRepository,
	numbers *NumberSequenceService,
	store cache.Store,
	ttl time.Duration,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		leadRepo:    leadRepo,
		historyRepo: historyRepo,
		numbers:     numbers,
		cache:       store,
		inv:         invalidator{store: store, logger: logger},
		ttl:         ttl,
		logger:      logger,
	}
}

// Lead reads the current workflow state straight from the database
func (s *LeadService) Lead(ctx context.Context, vendorID uuid.UUID, leadID int64) (workflow.LeadState, error) {
	lead, err := s.load(ctx, vendorID, leadID)
	if err != nil {
		return workflow.LeadState{}, err
	}
	return lead.State(), nil
}

func (s *LeadService) MoveStage(ctx context.Context, m workflow.StageMutation) error {
	if err := s.leadRepo.MoveStage(ctx, m); err != nil {
		if errors.Is(err, repository.ErrStaleLead) {
			return errStaleLead
		}
		return fmt.Errorf("failed to move lead %d: %w", m.LeadID, err)
	}
	s.logger.Info("lead stage moved",
		zap.Int64("lead_id", m.LeadID),
		zap.String("from", string(m.From)),
		zap.String("to", string(m.To)),
		zap.String("user_id", m.UpdatedBy.String()))
	return nil
}

func (s *LeadService) SetActivityStatus(ctx context.Context, m workflow.StatusMutation) error {
	if err := s.leadRepo.SetActivityStatus(ctx, m); err != nil {
		if errors.Is(err, repository.ErrStaleLead) {
			return errStaleLead
		}
		return fmt.Errorf("failed to set status of lead %d: %w", m.LeadID, err)
	}
	s.logger.Info("lead activity status changed",
		zap.Int64("lead_id", m.LeadID),
		zap.String("from", string(m.From)),
		zap.String("to", string(m.Status)),
		zap.String("user_id", m.UserID.String()))
	return nil
}

// Create registers a lead in the first pipeline stage
func (s *LeadService) Create(ctx context.Context, actor workflow.ActorContext, req *domain.CreateLeadRequest) (*domain.LeadDTO, error) {
	if !actor.Can(workflow.CapEditLead) {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}

	code, err := s.numbers.GenerateLeadCode(ctx, actor.VendorID)
	if err != nil {
		return nil, err
	}

	lead := &domain.Lead{
		LeadCode:       code,
		VendorID:       actor.VendorID,
		AccountID:      req.AccountID,
		Stage:          workflow.Stages()[0],
		ActivityStatus: workflow.StatusActive,
		IsDraft:        req.IsDraft,
		CustomerName:   strings.TrimSpace(req.CustomerName),
		Phone:          req.Phone,
		Email:          req.Email,
		City:           req.City,
		Address:        req.Address,
		ProjectValue:   req.ProjectValue,
		AssignedTo:     req.AssignedTo,
		AssignedToName: req.AssignedToName,
		CreatedByID:    actor.UserID,
		CreatedByName:  actor.Name,
	}
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.inv.fire(ctx, workflow.EventLeadCreated, workflow.EventContext{LeadID: lead.ID, Stage: lead.Stage})
	s.logger.Info("lead created", zap.Int64("lead_id", lead.ID), zap.String("lead_code", code))

	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

// GetByID returns the lead, cached under its leadById key
func (s *LeadService) GetByID(ctx context.Context, actor workflow.ActorContext, id int64) (*domain.LeadDTO, error) {
	key := cache.Key(workflow.LeadByIDKey(id), actor.VendorID.String())
	dto, err := cache.Fetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) (domain.LeadDTO, error) {
		lead, err := s.load(ctx, actor.VendorID, id)
		if err != nil {
			return domain.LeadDTO{}, err
		}
		return mapper.ToLeadDTO(lead), nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// List returns a page of leads. Stage listings and non-active status listings
// are cached under the keys the invalidation policy clears. The lost stage
// lists lost leads unless a status is given.
func (s *LeadService) List(ctx context.Context, actor workflow.ActorContext, filters domain.LeadFilters, page, pageSize int) (*domain.LeadPage, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	if filters.Status == "" {
		filters.Status = workflow.StatusActive
		if filters.Stage == workflow.StageLost {
			filters.Status = workflow.StatusLost
		}
	}

	load := func(ctx context.Context) (domain.LeadPage, error) {
		leads, total, err := s.leadRepo.List(ctx, actor.VendorID, filters, page, pageSize, repository.DefaultSortConfig())
		if err != nil {
			return domain.LeadPage{}, err
		}
		return domain.LeadPage{
			Data:       mapper.ToLeadDTOs(leads),
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages(total, pageSize),
		}, nil
	}

	base := listingCacheBase(filters)
	if base == "" {
		resp, err := load(ctx)
		return &resp, err
	}

	assignee := ""
	if filters.AssignedTo != nil {
		assignee = filters.AssignedTo.String()
	}
	key := cache.Key(base, actor.VendorID.String(), string(filters.Stage), string(filters.Status), assignee,
		strings.ToLower(filters.Search), strconv.Itoa(page), strconv.Itoa(pageSize))

	resp, err := cache.Fetch(ctx, s.cache, key, s.ttl, load)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func listingCacheBase(f domain.LeadFilters) string {
	switch {
	case f.Status != workflow.StatusActive:
		return workflow.PendingKey(f.Status)
	case f.Stage != "":
		return workflow.ListingKey(f.Stage)
	}
	return ""
}

// Stats counts the vendor's leads by stage and status
func (s *LeadService) Stats(ctx context.Context, actor workflow.ActorContext) (*domain.LeadStatsDTO, error) {
	key := cache.Key(workflow.KeyLeadStats, actor.VendorID.String())
	stats, err := cache.Fetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) (domain.LeadStatsDTO, error) {
		rows, err := s.leadRepo.CountByStageAndStatus(ctx, actor.VendorID)
		if err != nil {
			return domain.LeadStatsDTO{}, err
		}
		out := domain.LeadStatsDTO{
			ByStage:  make(map[workflow.Stage]int64),
			ByStatus: make(map[workflow.ActivityStatus]int64),
		}
		for _, r := range rows {
			out.Total += r.Count
			out.ByStage[r.Stage] += r.Count
			out.ByStatus[r.ActivityStatus] += r.Count
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Update edits mutable lead fields
func (s *LeadService) Update(ctx context.Context, actor workflow.ActorContext, id int64, req *domain.UpdateLeadRequest) (*domain.LeadDTO, error) {
	if !actor.Can(workflow.CapEditLead) {
		return nil, ErrForbidden
	}
	lead, err := s.load(ctx, actor.VendorID, id)
	if err != nil {
		return nil, err
	}

	if req.AssignedTo != nil && !actor.Can(workflow.CapReassignLead) {
		return nil, ErrForbidden
	}
	applyLeadUpdate(lead, req)
	if strings.TrimSpace(lead.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.inv.fire(ctx, workflow.EventLeadEdited, workflow.EventContext{
		LeadID:     lead.ID,
		Stage:      lead.Stage,
		FromStatus: lead.ActivityStatus,
	})

	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

func applyLeadUpdate(lead *domain.Lead, req *domain.UpdateLeadRequest) {
	if req.CustomerName != nil {
		lead.CustomerName = strings.TrimSpace(*req.CustomerName)
	}
	if req.AccountID != nil {
		lead.AccountID = *req.AccountID
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.City != nil {
		lead.City = *req.City
	}
	if req.Address != nil {
		lead.Address = *req.Address
	}
	if req.ProjectValue != nil {
		lead.ProjectValue = *req.ProjectValue
	}
	if req.AssignedTo != nil {
		lead.AssignedTo = req.AssignedTo
	}
	if req.AssignedToName != nil {
		lead.AssignedToName = *req.AssignedToName
	}
	if req.IsDraft != nil {
		lead.IsDraft = *req.IsDraft
	}
}

// Delete soft-deletes a lead
func (s *LeadService) Delete(ctx context.Context, actor workflow.ActorContext, id int64) error {
	if !actor.Can(workflow.CapDeleteLead) {
		return ErrForbidden
	}
	lead, err := s.load(ctx, actor.VendorID, id)
	if err != nil {
		return err
	}
	if err := s.leadRepo.SoftDelete(ctx, actor.VendorID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.inv.fire(ctx, workflow.EventLeadDeleted, workflow.EventContext{
		LeadID:     lead.ID,
		Stage:      lead.Stage,
		FromStatus: lead.ActivityStatus,
	})
	s.logger.Info("lead deleted", zap.Int64("lead_id", id), zap.String("user_id", actor.UserID.String()))
	return nil
}

// History returns the lead's stage and status history
func (s *LeadService) History(ctx context.Context, actor workflow.ActorContext, id int64) (*domain.LeadHistoryDTO, error) {
	if _, err := s.load(ctx, actor.VendorID, id); err != nil {
		return nil, err
	}

	stages, err := s.historyRepo.StageHistory(ctx, actor.VendorID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load stage history: %w", err)
	}
	statuses, err := s.historyRepo.StatusHistory(ctx, actor.VendorID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}

	out := &domain.LeadHistoryDTO{
		Stages:   make([]domain.StageHistoryDTO, len(stages)),
		Statuses: make([]domain.StatusHistoryDTO, len(statuses)),
	}
	for i := range stages {
		out.Stages[i] = mapper.ToStageHistoryDTO(&stages[i])
	}
	for i := range statuses {
		out.Statuses[i] = mapper.ToStatusHistoryDTO(&statuses[i])
	}
	return out, nil
}

// Entity returns the stored lead
func (s *LeadService) Entity(ctx context.Context, vendorID uuid.UUID, id int64) (*domain.Lead, error) {
	return s.load(ctx, vendorID, id)
}

func (s *LeadService) load(ctx context.Context, vendorID uuid.UUID, id int64) (*domain.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, vendorID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load lead %d: %w", id, err)
	}
	return lead, nil
}

func paginated(data interface{}, total int64, page, pageSize int) domain.PaginatedResponse {
	return domain.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}
}

func totalPages(total int64, pageSize int) int {
	n := int(total) / pageSize
	if int(total)%pageSize != 0 {
		n++
	}
	return n
}
