package service_test

import (
	"testing"
	"time"

	"github.com/woodcraft-crm/leadflow-api/internal/cache"
	"github.com/woodcraft-crm/leadflow-api/internal/repository"
	"github.com/woodcraft-crm/leadflow-api/internal/service"
	"github.com/woodcraft-crm/leadflow-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db            *gorm.DB
	store         *cache.MemoryStore
	leads         *service.LeadService
	notifications *service.NotificationService
	numbers       *service.NumberSequenceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	db := testutil.SetupTestDB(t)
	store := cache.NewMemoryStore()

	numbers := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), logger)
	leads := service.NewLeadService(
		repository.NewLeadRepository(db),
		repository.NewLeadHistoryRepository(db),
		numbers,
		store,
		time.Minute,
		logger,
	)
	return &fixture{
		db:            db,
		store:         store,
		leads:         leads,
		notifications: service.NewNotificationService(repository.NewNotificationRepository(db), logger),
		numbers:       numbers,
	}
}

func ptr[T any](v T) *T { return &v }
