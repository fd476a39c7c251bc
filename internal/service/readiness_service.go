package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/woodcraft-crm/leadflow-api/internal/cache"
	"github.com/woodcraft-crm/leadflow-api/internal/datawarehouse"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/repository"
	"github.com/woodcraft-crm/leadflow-api/internal/storage"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// CategoryProductionFiles is the document category holding production drawings
const CategoryProductionFiles = "production-files"

// LedgerSource reports a customer account's outstanding balance
type LedgerSource interface {
	IsEnabled() bool
	PendingAmount(ctx context.Context, accountID string) (*datawarehouse.LedgerBalance, error)
}

// FileIndex answers whether any file exists under a storage prefix
type FileIndex interface {
	HasAny(ctx context.Context, prefix string) (bool, error)
}

// ReadinessService assembles readiness facts from the pushed fact bags, the
// customer ledger and document storage
type ReadinessService struct {
	factRepo *repository.ReadinessFactRepository
	leads    *LeadService
	ledger   LedgerSource
	files    FileIndex
	gate     *workflow.Gate
	cache    cache.Store
	inv      invalidator
	timeout  time.Duration
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// ReadinessOptions tunes fact assembly
type ReadinessOptions struct {
	Timeout  time.Duration
	CacheTTL time.Duration
	Locale   string
}

func NewReadinessService(
	factRepo *repository.ReadinessFactRepository,
	leads *LeadService,
	ledger LedgerSource,
	files FileIndex,
	store cache.Store,
	opts ReadinessOptions,
	logger *zap.Logger,
) *ReadinessService {
	return &ReadinessService{
		factRepo: factRepo,
		leads:    leads,
		ledger:   ledger,
		files:    files,
		gate:     workflow.NewGate(opts.Locale),
		cache:    store,
		inv:      invalidator{store: store, logger: logger},
		timeout:  opts.Timeout,
		ttl:      opts.CacheTTL,
		now:      time.Now,
		logger:   logger,
	}
}

// Facts fetches fresh facts for a lead leaving q.Stage. Sources are queried
// concurrently and any failure fails the whole fetch.
func (s *ReadinessService) Facts(ctx context.Context, q workflow.FactQuery) (*workflow.Facts, error) {
	lead, err := s.leads.Entity(ctx, q.VendorID, q.LeadID)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var (
		stored  workflow.Facts
		balance *datawarehouse.LedgerBalance
		hasProd bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fact, err := s.factRepo.Get(gctx, q.LeadID, q.Stage)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load stored facts: %w", err)
		}
		stored = fact.Facts
		return nil
	})
	if s.readsLedger(q.Stage) && lead.AccountID != "" {
		g.Go(func() error {
			b, err := s.ledger.PendingAmount(gctx, lead.AccountID)
			if err != nil {
				return fmt.Errorf("failed to load customer ledger: %w", err)
			}
			balance = b
			return nil
		})
	}
	if q.Stage == workflow.StageOrderLogin && s.files != nil {
		g.Go(func() error {
			prefix := storage.LeadPrefix(q.VendorID, q.LeadID, string(workflow.StageOrderLogin), CategoryProductionFiles)
			ok, err := s.files.HasAny(gctx, prefix)
			if err != nil {
				return fmt.Errorf("failed to check production files: %w", err)
			}
			hasProd = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("readiness facts unavailable",
			zap.Int64("lead_id", q.LeadID),
			zap.String("stage", string(q.Stage)),
			zap.Error(err))
		return nil, err
	}

	facts := stored
	facts.Loading = false
	if balance != nil {
		facts.IsPaid = balance.IsPaid
		facts.PendingAmount = balance.PendingAmount
	}
	if hasProd {
		facts.ProductionFiles.HasAny = true
	}
	return &facts, nil
}

func (s *ReadinessService) readsLedger(stage workflow.Stage) bool {
	return stage == workflow.StageFinalHandover && s.ledger != nil && s.ledger.IsEnabled()
}

// PutFacts stores the fact bag pushed for a lead and stage
func (s *ReadinessService) PutFacts(ctx context.Context, actor workflow.ActorContext, leadID int64, stage workflow.Stage, facts workflow.Facts) error {
	if !actor.Can(workflow.CapManageFacts) {
		return ErrForbidden
	}
	if !stage.IsValid() {
		return fmt.Errorf("%w: %v", ErrInvalidInput, &workflow.UnknownStageError{Stage: string(stage)})
	}
	lead, err := s.leads.Entity(ctx, actor.VendorID, leadID)
	if err != nil {
		return err
	}

	facts.Loading = false
	err = s.factRepo.Upsert(ctx, &domain.LeadReadinessFact{
		LeadID:      leadID,
		VendorID:    actor.VendorID,
		Stage:       stage,
		Facts:       facts,
		UpdatedByID: actor.UserID,
	})
	if err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx, workflow.ReadinessKey(leadID)); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("pattern", workflow.ReadinessKey(leadID)), zap.Error(err))
	}
	s.logger.Info("readiness facts stored",
		zap.Int64("lead_id", leadID),
		zap.String("stage", string(stage)),
		zap.String("lead_stage", string(lead.Stage)))
	return nil
}

type readinessView struct {
	Stage    workflow.Stage    `json:"stage"`
	Decision workflow.Decision `json:"decision"`
	Facts    *workflow.Facts   `json:"facts"`
}

// Check evaluates the gate for the lead's current stage and picks the prompt
// the actor should see. The verdict is cached under the lead's readiness key,
// except where it depends on the customer ledger.
func (s *ReadinessService) Check(ctx context.Context, actor workflow.ActorContext, leadID int64) (*domain.ReadinessDTO, error) {
	lead, err := s.leads.Entity(ctx, actor.VendorID, leadID)
	if err != nil {
		return nil, err
	}

	load := func(ctx context.Context) (readinessView, error) {
		facts, err := s.Facts(ctx, workflow.FactQuery{VendorID: actor.VendorID, LeadID: leadID, Stage: lead.Stage})
		if err != nil {
			return readinessView{}, err
		}
		return readinessView{Stage: lead.Stage, Decision: s.gate.Evaluate(lead.Stage, facts), Facts: facts}, nil
	}

	var view readinessView
	if s.readsLedger(lead.Stage) {
		// ledger balances change outside this service and are never invalidated
		view, err = load(ctx)
	} else {
		key := cache.Key(workflow.ReadinessKey(leadID), actor.VendorID.String(), string(lead.Stage))
		view, err = cache.Fetch(ctx, s.cache, key, s.ttl, load)
	}
	if err != nil {
		return nil, err
	}

	decision := view.Decision
	if lead.ActivityStatus != workflow.StatusActive && !lead.Stage.IsTerminal() {
		decision = workflow.Decision{Reason: fmt.Sprintf("Lead is %s; revert it to active first", lead.ActivityStatus)}
	}

	return &domain.ReadinessDTO{
		LeadID:   leadID,
		Stage:    lead.Stage,
		Decision: decision,
		Facts:    view.Facts,
		Prompt:   workflow.AutoPrompt(lead.Stage, lead.ActivityStatus, actor.Capabilities(), lead.Flags(s.now())),
	}, nil
}
