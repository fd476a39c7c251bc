package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/mapper"
	"github.com/woodcraft-crm/leadflow-api/internal/repository"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationService persists in-app notifications. It is the orchestrator's
// success and error sink.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	logger           *zap.Logger
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

func (s *NotificationService) Success(ctx context.Context, actor workflow.ActorContext, leadID int64, message string) {
	s.record(ctx, actor.VendorID, actor.UserID, domain.NotificationTypeTransition, "Lead updated", message, leadID)
}

func (s *NotificationService) Error(ctx context.Context, actor workflow.ActorContext, leadID int64, message string) {
	s.record(ctx, actor.VendorID, actor.UserID, domain.NotificationTypeFailure, "Action failed", message, leadID)
}

// HoldReminder tells the lead's assignee, or its creator, that a hold is due
func (s *NotificationService) HoldReminder(ctx context.Context, lead *domain.Lead) error {
	recipient := lead.CreatedByID
	if lead.AssignedTo != nil {
		recipient = *lead.AssignedTo
	}
	if recipient == uuid.Nil {
		return fmt.Errorf("%w: lead %d has no assignee or creator", ErrInvalidInput, lead.ID)
	}

	msg := fmt.Sprintf("Lead %s (%s) was due for follow-up", lead.LeadCode, lead.CustomerName)
	if lead.HoldDueDate != nil {
		msg += " on " + lead.HoldDueDate.Format("2006-01-02")
	}
	id := lead.ID
	return s.notificationRepo.Create(ctx, &domain.Notification{
		VendorID: lead.VendorID,
		UserID:   recipient,
		Type:     domain.NotificationTypeHoldReminder,
		Title:    "On-hold lead due",
		Message:  msg,
		LeadID:   &id,
	})
}

func (s *NotificationService) record(ctx context.Context, vendorID, userID uuid.UUID, kind, title, message string, leadID int64) {
	n := &domain.Notification{
		VendorID: vendorID,
		UserID:   userID,
		Type:     kind,
		Title:    title,
		Message:  message,
		LeadID:   &leadID,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to store notification",
			zap.String("type", kind),
			zap.Int64("lead_id", leadID),
			zap.Error(err))
	}
}

// List returns the actor's notifications
func (s *NotificationService) List(ctx context.Context, actor workflow.ActorContext, page, pageSize int, unreadOnly bool, notificationType string) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	items, total, err := s.notificationRepo.ListByUser(ctx, actor.VendorID, actor.UserID, page, pageSize, unreadOnly, notificationType)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	dtos := make([]domain.NotificationDTO, len(items))
	for i := range items {
		dtos[i] = mapper.ToNotificationDTO(&items[i])
	}
	resp := paginated(dtos, total, page, pageSize)
	return &resp, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, actor workflow.ActorContext, id uuid.UUID) error {
	err := s.notificationRepo.MarkAsRead(ctx, actor.UserID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, actor workflow.ActorContext) error {
	return s.notificationRepo.MarkAllAsRead(ctx, actor.VendorID, actor.UserID)
}

func (s *NotificationService) CountUnread(ctx context.Context, actor workflow.ActorContext) (int, error) {
	return s.notificationRepo.CountUnread(ctx, actor.VendorID, actor.UserID)
}

var _ workflow.Notifier = (*NotificationService)(nil)
