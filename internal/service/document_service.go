package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/woodcraft-crm/leadflow-api/internal/cache"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/mapper"
	"github.com/woodcraft-crm/leadflow-api/internal/repository"
	"github.com/woodcraft-crm/leadflow-api/internal/storage"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

var categoryPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,49}$`)

// UploadInput describes one document upload
type UploadInput struct {
	LeadID      int64
	Stage       workflow.Stage // defaults to the lead's current stage
	Category    string
	Filename    string
	ContentType string
	Body        io.Reader
}

// DocumentService stores lead documents and records them
type DocumentService struct {
	docRepo *repository.DocumentRepository
	leads   *LeadService
	storage storage.Storage
	inv     invalidator
	logger  *zap.Logger
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	leads *LeadService,
	files storage.Storage,
	store cache.Store,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		docRepo: docRepo,
		leads:   leads,
		storage: files,
		inv:     invalidator{store: store, logger: logger},
		logger:  logger,
	}
}

// Upload stores the file under the lead's stage folder and records it
func (s *DocumentService) Upload(ctx context.Context, actor workflow.ActorContext, in UploadInput) (*domain.DocumentDTO, error) {
	if !actor.Can(workflow.CapUploadDocuments) {
		return nil, ErrForbidden
	}
	if !categoryPattern.MatchString(in.Category) {
		return nil, fmt.Errorf("%w: category must be lowercase letters, digits and dashes", ErrInvalidInput)
	}
	filename := filepath.Base(strings.TrimSpace(in.Filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}

	lead, err := s.leads.Entity(ctx, actor.VendorID, in.LeadID)
	if err != nil {
		return nil, err
	}
	stage := in.Stage
	if stage == "" {
		stage = lead.Stage
	}
	if !stage.IsValid() {
		return nil, fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, stage)
	}

	prefix := storage.LeadPrefix(actor.VendorID, lead.ID, string(stage), in.Category)
	path, size, err := s.storage.Upload(ctx, prefix, filename, in.ContentType, in.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &domain.LeadDocument{
		LeadID:         lead.ID,
		VendorID:       actor.VendorID,
		Stage:          stage,
		Category:       in.Category,
		Filename:       filename,
		ContentType:    in.ContentType,
		Size:           size,
		StoragePath:    path,
		UploadedByID:   actor.UserID,
		UploadedByName: actor.Name,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		if delErr := s.storage.Delete(ctx, path); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("path", path), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	s.inv.fire(ctx, workflow.EventDocumentUploaded, workflow.EventContext{LeadID: lead.ID, Stage: lead.Stage})
	s.logger.Info("document uploaded",
		zap.Int64("lead_id", lead.ID),
		zap.String("stage", string(stage)),
		zap.String("category", in.Category),
		zap.Int64("size", size))

	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}

// List returns the lead's documents
func (s *DocumentService) List(ctx context.Context, actor workflow.ActorContext, leadID int64) ([]domain.DocumentDTO, error) {
	if _, err := s.leads.Entity(ctx, actor.VendorID, leadID); err != nil {
		return nil, err
	}
	docs, err := s.docRepo.ListByLead(ctx, actor.VendorID, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	out := make([]domain.DocumentDTO, len(docs))
	for i := range docs {
		out[i] = mapper.ToDocumentDTO(&docs[i])
	}
	return out, nil
}
