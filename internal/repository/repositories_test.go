package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/repository"
	"github.com/woodcraft-crm/leadflow-api/internal/testutil"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
)

func TestReadinessFactRepository_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewReadinessFactRepository(db)
	ctx := context.Background()
	vendor := uuid.New()
	lead := testutil.CreateTestLead(t, db, vendor, testutil.WithStage(workflow.StageSiteReadiness))

	_, err := repo.Get(ctx, lead.ID, workflow.StageSiteReadiness)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Upsert(ctx, &domain.LeadReadinessFact{
		LeadID: lead.ID, VendorID: vendor, Stage: workflow.StageSiteReadiness,
		Facts: workflow.Facts{IsSiteReadinessCompleted: false},
	}))
	require.NoError(t, repo.Upsert(ctx, &domain.LeadReadinessFact{
		LeadID: lead.ID, VendorID: vendor, Stage: workflow.StageSiteReadiness,
		Facts: workflow.Facts{IsSiteReadinessCompleted: true, Flags: map[string]bool{"photo": true}},
	}))

	got, err := repo.Get(ctx, lead.ID, workflow.StageSiteReadiness)
	require.NoError(t, err)
	assert.True(t, got.Facts.IsSiteReadinessCompleted)
	assert.True(t, got.Facts.Flags["photo"])

	var count int64
	require.NoError(t, db.Model(&domain.LeadReadinessFact{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDocumentRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewDocumentRepository(db)
	ctx := context.Background()
	vendor := uuid.New()
	lead := testutil.CreateTestLead(t, db, vendor)

	for _, category := range []string{"site-photo", "site-photo", "measurement"} {
		require.NoError(t, repo.Create(ctx, &domain.LeadDocument{
			LeadID: lead.ID, VendorID: vendor, Stage: workflow.StageSiteReadiness,
			Category: category, Filename: category + ".jpg", Size: 10, StoragePath: "p/" + uuid.NewString(),
		}))
	}

	docs, err := repo.ListByLead(ctx, vendor, lead.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	others, err := repo.ListByLead(ctx, uuid.New(), lead.ID)
	require.NoError(t, err)
	assert.Empty(t, others)

	n, err := repo.CountByCategory(ctx, lead.ID, workflow.StageSiteReadiness, "site-photo")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := repo.GetByID(ctx, vendor, docs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, docs[0].Filename, got.Filename)

	require.NoError(t, repo.Delete(ctx, vendor, docs[0].ID))
	_, err = repo.GetByID(ctx, vendor, docs[0].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestNotificationRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNotificationRepository(db)
	ctx := context.Background()
	vendor := uuid.New()
	user := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &domain.Notification{
			VendorID: vendor, UserID: user, Type: domain.NotificationTypeTransition,
			Title: "Lead moved", Message: "Lead moved to Production",
		}))
	}
	require.NoError(t, repo.Create(ctx, &domain.Notification{
		VendorID: vendor, UserID: user, Type: domain.NotificationTypeHoldReminder,
		Title: "Hold due", Message: "Lead LD-2026-001 is due for follow-up",
	}))
	require.NoError(t, repo.Create(ctx, &domain.Notification{
		VendorID: vendor, UserID: uuid.New(), Type: domain.NotificationTypeTransition,
		Title: "Other", Message: "Other user",
	}))

	list, total, err := repo.ListByUser(ctx, vendor, user, 1, 2, false, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, list, 2)

	_, total, err = repo.ListByUser(ctx, vendor, user, 1, 20, false, domain.NotificationTypeHoldReminder)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.NoError(t, repo.MarkAsRead(ctx, user, list[0].ID))
	assert.ErrorIs(t, repo.MarkAsRead(ctx, uuid.New(), list[1].ID), gorm.ErrRecordNotFound)

	unread, err := repo.CountUnread(ctx, vendor, user)
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	require.NoError(t, repo.MarkAllAsRead(ctx, vendor, user))
	unread, err = repo.CountUnread(ctx, vendor, user)
	require.NoError(t, err)
	assert.Zero(t, unread)

	got, err := repo.GetByID(ctx, user, list[0].ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	assert.NotNil(t, got.ReadAt)
}

func TestNumberSequenceRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)
	ctx := context.Background()
	vendor := uuid.New()

	current, err := repo.GetCurrentSequence(ctx, vendor, 2026)
	require.NoError(t, err)
	assert.Zero(t, current)

	for want := 1; want <= 3; want++ {
		got, err := repo.GetNextNumber(ctx, vendor, 2026)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	other, err := repo.GetNextNumber(ctx, vendor, 2027)
	require.NoError(t, err)
	assert.Equal(t, 1, other, "sequences restart per year")

	otherVendor, err := repo.GetNextNumber(ctx, uuid.New(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, otherVendor, "sequences are per vendor")
}

func TestNumberSequenceRepository_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)
	vendor := uuid.New()

	const n = 10
	results := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repo.GetNextNumber(context.Background(), vendor, 2026)
			assert.NoError(t, err)
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	seen := map[int]bool{}
	for v := range results {
		assert.False(t, seen[v], "duplicate sequence %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, size, wantPage, wantSize int
	}{
		{0, 0, 1, 20},
		{3, 50, 3, 50},
		{-1, 1000, 1, repository.MaxPageSize},
	}
	for _, tt := range tests {
		p, s := repository.NormalizePage(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantSize, s)
	}
}

func TestBuildOrderClause(t *testing.T) {
	fields := map[string]string{"createdAt": "created_at"}
	assert.Equal(t, "created_at ASC", repository.BuildOrderClause(repository.SortConfig{Field: "createdAt", Order: repository.SortOrderAsc}, fields, "updated_at"))
	assert.Equal(t, "updated_at DESC", repository.BuildOrderClause(repository.SortConfig{Field: "password"}, fields, "updated_at"))
	assert.Equal(t, repository.SortOrderAsc, repository.ParseSortOrder("ASC"))
	assert.Equal(t, repository.SortOrderDesc, repository.ParseSortOrder("sideways"))
}
