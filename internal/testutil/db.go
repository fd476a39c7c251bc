// Package testutil provides database and fixture helpers for tests
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/woodcraft-crm/leadflow-api/internal/database"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
)

// SetupTestDB opens a private in-memory SQLite database with the schema migrated
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// LeadOption customizes a fixture lead
type LeadOption func(*domain.Lead)

func WithStage(s workflow.Stage) LeadOption {
	return func(l *domain.Lead) { l.Stage = s }
}

func WithStatus(s workflow.ActivityStatus) LeadOption {
	return func(l *domain.Lead) { l.ActivityStatus = s }
}

func WithAssignee(id uuid.UUID, name string) LeadOption {
	return func(l *domain.Lead) {
		l.AssignedTo = &id
		l.AssignedToName = name
	}
}

func WithHoldDue(due time.Time) LeadOption {
	return func(l *domain.Lead) {
		l.ActivityStatus = workflow.StatusOnHold
		l.HoldDueDate = &due
	}
}

// CreateTestLead inserts an active lead in the open stage unless options say otherwise
func CreateTestLead(t *testing.T, db *gorm.DB, vendorID uuid.UUID, opts ...LeadOption) *domain.Lead {
	t.Helper()

	lead := &domain.Lead{
		LeadCode:       "LD-" + uuid.NewString()[:8],
		VendorID:       vendorID,
		AccountID:      "ACC-" + uuid.NewString()[:6],
		Stage:          workflow.StageOpen,
		ActivityStatus: workflow.StatusActive,
		CustomerName:   "Test Customer",
		City:           "Bengaluru",
	}
	for _, opt := range opts {
		opt(lead)
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

// Actor returns an actor of role acting for vendorID
func Actor(vendorID uuid.UUID, role workflow.Role) workflow.ActorContext {
	return workflow.ActorContext{
		VendorID: vendorID,
		UserID:   uuid.New(),
		Role:     role,
		Name:     "Test " + string(role),
	}
}
