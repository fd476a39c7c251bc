package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/repository"
	"github.com/woodcraft-crm/leadflow-api/internal/testutil"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
)

func TestLeadRepository_GetByID_VendorScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	vendor := uuid.New()
	lead := testutil.CreateTestLead(t, db, vendor)

	got, err := repo.GetByID(context.Background(), vendor, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.LeadCode, got.LeadCode)

	_, err = repo.GetByID(context.Background(), uuid.New(), lead.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLeadRepository_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	ctx := context.Background()
	vendor := uuid.New()
	assignee := uuid.New()

	testutil.CreateTestLead(t, db, vendor)
	testutil.CreateTestLead(t, db, vendor, testutil.WithStage(workflow.StageProduction))
	testutil.CreateTestLead(t, db, vendor, testutil.WithStage(workflow.StageProduction), testutil.WithStatus(workflow.StatusOnHold))
	testutil.CreateTestLead(t, db, vendor, testutil.WithAssignee(assignee, "Ravi"))
	testutil.CreateTestLead(t, db, uuid.New())

	tests := []struct {
		name    string
		filters domain.LeadFilters
		want    int64
	}{
		{"all of vendor", domain.LeadFilters{}, 4},
		{"by stage", domain.LeadFilters{Stage: workflow.StageProduction}, 2},
		{"by stage and status", domain.LeadFilters{Stage: workflow.StageProduction, Status: workflow.StatusActive}, 1},
		{"by status", domain.LeadFilters{Status: workflow.StatusOnHold}, 1},
		{"by assignee", domain.LeadFilters{AssignedTo: &assignee}, 1},
		{"search customer", domain.LeadFilters{Search: "test CUSTOMER"}, 4},
		{"search miss", domain.LeadFilters{Search: "nobody"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leads, total, err := repo.List(ctx, vendor, tt.filters, 1, 20, repository.DefaultSortConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, leads, int(tt.want))
		})
	}

	t.Run("pagination", func(t *testing.T) {
		leads, total, err := repo.List(ctx, vendor, domain.LeadFilters{}, 2, 3, repository.DefaultSortConfig())
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, leads, 1)
	})
}

func TestLeadRepository_Update_LeavesWorkflowFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	ctx := context.Background()
	vendor := uuid.New()
	lead := testutil.CreateTestLead(t, db, vendor, testutil.WithStage(workflow.StageDesigning))

	lead.CustomerName = "Meera Nair"
	lead.Stage = workflow.StageProjectCompleted
	lead.ActivityStatus = workflow.StatusLost
	require.NoError(t, repo.Update(ctx, lead))

	got, err := repo.GetByID(ctx, vendor, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Meera Nair", got.CustomerName)
	assert.Equal(t, workflow.StageDesigning, got.Stage)
	assert.Equal(t, workflow.StatusActive, got.ActivityStatus)

	lead.VendorID = uuid.New()
	assert.ErrorIs(t, repo.Update(ctx, lead), gorm.ErrRecordNotFound)
}

func TestLeadRepository_SoftDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	ctx := context.Background()
	vendor := uuid.New()
	lead := testutil.CreateTestLead(t, db, vendor)

	assert.ErrorIs(t, repo.SoftDelete(ctx, uuid.New(), lead.ID), gorm.ErrRecordNotFound)
	require.NoError(t, repo.SoftDelete(ctx, vendor, lead.ID))

	_, err := repo.GetByID(ctx, vendor, lead.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Unscoped().Model(&domain.Lead{}).Where("id = ?", lead.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLeadRepository_MoveStage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	history := repository.NewLeadHistoryRepository(db)
	ctx := context.Background()
	vendor := uuid.New()
	user := uuid.New()
	lead := testutil.CreateTestLead(t, db, vendor, testutil.WithStage(workflow.StageSiteReadiness))

	move := workflow.StageMutation{
		VendorID:      vendor,
		LeadID:        lead.ID,
		UpdatedBy:     user,
		UpdatedByName: "Kiran",
		From:          workflow.StageSiteReadiness,
		To:            workflow.StageDispatchPlanning,
		Payload:       map[string]any{"photos": float64(2)},
	}
	require.NoError(t, repo.MoveStage(ctx, move))

	got, err := repo.GetByID(ctx, vendor, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StageDispatchPlanning, got.Stage)
	assert.Equal(t, lead.LeadCode, got.LeadCode)

	entries, err := history.StageHistory(ctx, vendor, lead.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, workflow.StageSiteReadiness, entries[0].FromStage)
	assert.Equal(t, workflow.StageDispatchPlanning, entries[0].ToStage)
	assert.Equal(t, "Kiran", entries[0].ChangedByName)
	assert.Equal(t, float64(2), entries[0].Payload["photos"])

	t.Run("stale source stage", func(t *testing.T) {
		err := repo.MoveStage(ctx, move)
		assert.ErrorIs(t, err, repository.ErrStaleLead)

		entries, err := history.StageHistory(ctx, vendor, lead.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "no history row for a rejected move")
	})
}

func TestLeadRepository_MoveStage_RequiresActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	vendor := uuid.New()
	lead := testutil.CreateTestLead(t, db, vendor, testutil.WithStatus(workflow.StatusOnHold))

	err := repo.MoveStage(context.Background(), workflow.StageMutation{
		VendorID: vendor, LeadID: lead.ID, From: workflow.StageOpen, To: workflow.StageInitialSiteMeasurement,
	})
	assert.ErrorIs(t, err, repository.ErrStaleLead)
}

func TestLeadRepository_SetActivityStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	history := repository.NewLeadHistoryRepository(db)
	ctx := context.Background()
	vendor := uuid.New()
	lead := testutil.CreateTestLead(t, db, vendor, testutil.WithStage(workflow.StageDesigning))
	due := time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SetActivityStatus(ctx, workflow.StatusMutation{
		LeadID: lead.ID, VendorID: vendor, UserID: uuid.New(), CreatedBy: "Asha",
		From: workflow.StatusActive, Status: workflow.StatusOnHold,
		Remark: "customer travelling", DueDate: &due,
	}))

	got, err := repo.GetByID(ctx, vendor, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusOnHold, got.ActivityStatus)
	assert.Equal(t, workflow.StageDesigning, got.Stage)
	require.NotNil(t, got.HoldDueDate)
	assert.Equal(t, "2026-11-05", got.HoldDueDate.Format("2006-01-02"))

	require.NoError(t, repo.SetActivityStatus(ctx, workflow.StatusMutation{
		LeadID: lead.ID, VendorID: vendor, From: workflow.StatusOnHold, Status: workflow.StatusActive,
		Remark: "back on track",
	}))
	got, err = repo.GetByID(ctx, vendor, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusActive, got.ActivityStatus)
	assert.Nil(t, got.HoldDueDate)

	entries, err := history.StatusHistory(ctx, vendor, lead.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	err = repo.SetActivityStatus(ctx, workflow.StatusMutation{
		LeadID: lead.ID, VendorID: vendor, From: workflow.StatusOnHold, Status: workflow.StatusActive,
	})
	assert.ErrorIs(t, err, repository.ErrStaleLead)
}

func TestLeadRepository_SetActivityStatus_Lost(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	history := repository.NewLeadHistoryRepository(db)
	ctx := context.Background()
	vendor := uuid.New()
	lead := testutil.CreateTestLead(t, db, vendor,
		testutil.WithStage(workflow.StageBooking), testutil.WithStatus(workflow.StatusLostApproval))
	approver := uuid.New()

	require.NoError(t, repo.SetActivityStatus(ctx, workflow.StatusMutation{
		LeadID: lead.ID, VendorID: vendor, UserID: approver, CreatedBy: "Ada",
		From: workflow.StatusLostApproval, Status: workflow.StatusLost, Remark: "went with another vendor",
	}))

	got, err := repo.GetByID(ctx, vendor, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusLost, got.ActivityStatus)
	assert.Equal(t, workflow.StageLost, got.Stage)

	moves, err := history.StageHistory(ctx, vendor, lead.ID)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, workflow.StageBooking, moves[0].FromStage)
	assert.Equal(t, workflow.StageLost, moves[0].ToStage)
	assert.Equal(t, approver, moves[0].ChangedByID)

	leads, total, err := repo.List(ctx, vendor, domain.LeadFilters{Stage: workflow.StageLost, Status: workflow.StatusLost}, 1, 20, repository.DefaultSortConfig())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, leads, 1)
	assert.Equal(t, lead.ID, leads[0].ID)

	err = repo.SetActivityStatus(ctx, workflow.StatusMutation{
		LeadID: lead.ID, VendorID: vendor, From: workflow.StatusLostApproval, Status: workflow.StatusLost,
	})
	assert.ErrorIs(t, err, repository.ErrStaleLead)
}

func TestLeadRepository_Counts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	ctx := context.Background()
	vendor := uuid.New()
	today := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	testutil.CreateTestLead(t, db, vendor)
	testutil.CreateTestLead(t, db, vendor)
	testutil.CreateTestLead(t, db, vendor, testutil.WithHoldDue(today.AddDate(0, 0, -1)))
	testutil.CreateTestLead(t, db, vendor, testutil.WithHoldDue(today.AddDate(0, 0, 3)))
	testutil.CreateTestLead(t, db, uuid.New())

	rows, err := repo.CountByStageAndStatus(ctx, vendor)
	require.NoError(t, err)
	counts := map[workflow.ActivityStatus]int64{}
	for _, r := range rows {
		assert.Equal(t, workflow.StageOpen, r.Stage)
		counts[r.ActivityStatus] += r.Count
	}
	assert.Equal(t, int64(2), counts[workflow.StatusActive])
	assert.Equal(t, int64(2), counts[workflow.StatusOnHold])

	overdue, err := repo.CountOverdueHolds(ctx, vendor, today)
	require.NoError(t, err)
	assert.Equal(t, int64(1), overdue)
}

func TestLeadRepository_DueHolds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	ctx := context.Background()
	today := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	due := testutil.CreateTestLead(t, db, uuid.New(), testutil.WithHoldDue(today))
	testutil.CreateTestLead(t, db, uuid.New(), testutil.WithHoldDue(today.AddDate(0, 0, 1)))

	leads, err := repo.ListDueHolds(ctx, today, today, 10)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, due.ID, leads[0].ID)

	require.NoError(t, repo.MarkHoldReminded(ctx, due.ID, today.Add(8*time.Hour)))

	leads, err = repo.ListDueHolds(ctx, today, today, 10)
	require.NoError(t, err)
	assert.Empty(t, leads, "reminded today")

	leads, err = repo.ListDueHolds(ctx, today.AddDate(0, 0, 1), today.AddDate(0, 0, 1), 10)
	require.NoError(t, err)
	assert.Len(t, leads, 2, "reminded again the next day")
}
