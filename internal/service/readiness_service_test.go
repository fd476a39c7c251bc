package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woodcraft-crm/leadflow-api/internal/datawarehouse"
	"github.com/woodcraft-crm/leadflow-api/internal/repository"
	"github.com/woodcraft-crm/leadflow-api/internal/service"
	"github.com/woodcraft-crm/leadflow-api/internal/storage"
	"github.com/woodcraft-crm/leadflow-api/internal/testutil"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

type fakeLedger struct {
	enabled bool
	balance *datawarehouse.LedgerBalance
	err     error
	calls   int
}

func (l *fakeLedger) IsEnabled() bool { return l.enabled }

func (l *fakeLedger) PendingAmount(_ context.Context, accountID string) (*datawarehouse.LedgerBalance, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	b := *l.balance
	b.AccountID = accountID
	return &b, nil
}

type fakeFiles struct {
	mu       sync.Mutex
	has      bool
	prefixes []string
}

func (f *fakeFiles) HasAny(_ context.Context, prefix string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = append(f.prefixes, prefix)
	return f.has, nil
}

func newReadiness(f *fixture, ledger service.LedgerSource, files service.FileIndex) *service.ReadinessService {
	return service.NewReadinessService(
		repository.NewReadinessFactRepository(f.db),
		f.leads,
		ledger,
		files,
		f.store,
		service.ReadinessOptions{Timeout: 5 * time.Second, CacheTTL: time.Minute, Locale: "en"},
		zap.NewNop(),
	)
}

func TestReadinessService_PutFacts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vendorID := uuid.New()
	lead := testutil.CreateTestLead(t, f.db, vendorID)
	readiness := newReadiness(f, nil, nil)
	svc := testutil.Actor(vendorID, workflow.RoleService)

	t.Run("only the service identity may push facts", func(t *testing.T) {
		err := readiness.PutFacts(ctx, testutil.Actor(vendorID, workflow.RoleSalesExecutive), lead.ID, workflow.StageOpen, workflow.Facts{})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("rejects unknown stages", func(t *testing.T) {
		err := readiness.PutFacts(ctx, svc, lead.ID, workflow.Stage("paint-drying"), workflow.Facts{})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("rejects leads of other vendors", func(t *testing.T) {
		err := readiness.PutFacts(ctx, testutil.Actor(uuid.New(), workflow.RoleService), lead.ID, workflow.StageOpen, workflow.Facts{})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("a push replaces the cached verdict", func(t *testing.T) {
		admin := testutil.Actor(vendorID, workflow.RoleAdmin)

		before, err := readiness.Check(ctx, admin, lead.ID)
		require.NoError(t, err)
		assert.False(t, before.Decision.Allowed)
		assert.Equal(t, "Open prerequisites are not complete", before.Decision.Reason)

		require.NoError(t, readiness.PutFacts(ctx, svc, lead.ID, workflow.StageOpen, workflow.Facts{
			Flags: map[string]bool{"leadDetailsComplete": true},
		}))

		after, err := readiness.Check(ctx, admin, lead.ID)
		require.NoError(t, err)
		assert.True(t, after.Decision.Allowed)
	})

	t.Run("a later push overwrites the earlier one", func(t *testing.T) {
		require.NoError(t, readiness.PutFacts(ctx, svc, lead.ID, workflow.StageOpen, workflow.Facts{
			MissingFields: []string{"phone"},
		}))

		facts, err := readiness.Facts(ctx, workflow.FactQuery{VendorID: vendorID, LeadID: lead.ID, Stage: workflow.StageOpen})
		require.NoError(t, err)
		assert.Empty(t, facts.Flags)
		assert.Equal(t, []string{"phone"}, facts.MissingFields)
	})
}

func TestReadinessService_FinalHandoverPayment(t *testing.T) {
	ctx := context.Background()
	vendorID := uuid.New()

	tests := []struct {
		name        string
		ledger      *fakeLedger
		wantAllowed bool
		wantReason  string
		wantErr     bool
	}{
		{
			name:       "outstanding balance blocks",
			ledger:     &fakeLedger{enabled: true, balance: &datawarehouse.LedgerBalance{PendingAmount: 125000}},
			wantReason: "Pending payment of 125,000",
		},
		{
			name:        "settled account passes",
			ledger:      &fakeLedger{enabled: true, balance: &datawarehouse.LedgerBalance{IsPaid: true}},
			wantAllowed: true,
		},
		{
			name:    "ledger failure fails the check",
			ledger:  &fakeLedger{enabled: true, err: errors.New("warehouse down")},
			wantErr: true,
		},
		{
			name:        "disabled ledger falls back to pushed facts",
			ledger:      &fakeLedger{enabled: false},
			wantAllowed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			lead := testutil.CreateTestLead(t, f.db, vendorID, testutil.WithStage(workflow.StageFinalHandover))
			readiness := newReadiness(f, tt.ledger, nil)

			require.NoError(t, readiness.PutFacts(ctx, testutil.Actor(vendorID, workflow.RoleService), lead.ID, workflow.StageFinalHandover, workflow.Facts{
				DocsComplete:      true,
				PendingTasksClear: true,
				IsPaid:            true,
			}))

			got, err := readiness.Check(ctx, testutil.Actor(vendorID, workflow.RoleInstallation), lead.ID)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, got.Decision.Allowed)
			assert.Equal(t, tt.wantReason, got.Decision.Reason)
			if tt.ledger.enabled {
				assert.Equal(t, 1, tt.ledger.calls)
			} else {
				assert.Zero(t, tt.ledger.calls)
			}
		})
	}
}

func TestReadinessService_PaymentReadLive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vendorID := uuid.New()
	lead := testutil.CreateTestLead(t, f.db, vendorID, testutil.WithStage(workflow.StageFinalHandover))
	ledger := &fakeLedger{enabled: true, balance: &datawarehouse.LedgerBalance{PendingAmount: 40000}}
	readiness := newReadiness(f, ledger, nil)
	installer := testutil.Actor(vendorID, workflow.RoleInstallation)

	require.NoError(t, readiness.PutFacts(ctx, testutil.Actor(vendorID, workflow.RoleService), lead.ID, workflow.StageFinalHandover, workflow.Facts{
		DocsComplete:      true,
		PendingTasksClear: true,
	}))

	got, err := readiness.Check(ctx, installer, lead.ID)
	require.NoError(t, err)
	assert.False(t, got.Decision.Allowed)
	assert.Equal(t, "Pending payment of 40,000", got.Decision.Reason)

	ledger.balance = &datawarehouse.LedgerBalance{IsPaid: true}

	got, err = readiness.Check(ctx, installer, lead.ID)
	require.NoError(t, err)
	assert.True(t, got.Decision.Allowed)
	assert.Equal(t, 2, ledger.calls)
}

func TestReadinessService_ProductionFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vendorID := uuid.New()
	lead := testutil.CreateTestLead(t, f.db, vendorID, testutil.WithStage(workflow.StageOrderLogin))
	files := &fakeFiles{}
	readiness := newReadiness(f, nil, files)

	facts, err := readiness.Facts(ctx, workflow.FactQuery{VendorID: vendorID, LeadID: lead.ID, Stage: workflow.StageOrderLogin})
	require.NoError(t, err)
	assert.False(t, facts.ProductionFiles.HasAny)
	assert.Equal(t, "No Production Files uploaded", workflow.Evaluate(workflow.StageOrderLogin, facts).Reason)

	files.has = true
	facts, err = readiness.Facts(ctx, workflow.FactQuery{VendorID: vendorID, LeadID: lead.ID, Stage: workflow.StageOrderLogin})
	require.NoError(t, err)
	assert.True(t, facts.ProductionFiles.HasAny)

	want := storage.LeadPrefix(vendorID, lead.ID, "order-login", service.CategoryProductionFiles)
	assert.Equal(t, []string{want, want}, files.prefixes)
}

func TestReadinessService_CheckStatusAndPrompt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vendorID := uuid.New()
	readiness := newReadiness(f, nil, nil)
	sales := testutil.Actor(vendorID, workflow.RoleSalesExecutive)

	t.Run("held lead must be reverted first", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, f.db, vendorID, testutil.WithHoldDue(time.Now().UTC().AddDate(0, 0, -1)))
		got, err := readiness.Check(ctx, sales, lead.ID)
		require.NoError(t, err)
		assert.False(t, got.Decision.Allowed)
		assert.Equal(t, "Lead is onHold; revert it to active first", got.Decision.Reason)
		assert.Equal(t, workflow.PromptResumeOnHold, got.Prompt)
	})

	t.Run("unassigned open lead prompts assignment", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, f.db, vendorID)
		got, err := readiness.Check(ctx, sales, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, workflow.PromptAssignLead, got.Prompt)
	})

	t.Run("lost approval prompts the admin", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, f.db, vendorID, testutil.WithStatus(workflow.StatusLostApproval))
		got, err := readiness.Check(ctx, testutil.Actor(vendorID, workflow.RoleAdmin), lead.ID)
		require.NoError(t, err)
		assert.Equal(t, workflow.PromptReviewLostApproval, got.Prompt)
	})
}
