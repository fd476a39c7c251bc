package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		stage      workflow.Stage
		facts      *workflow.Facts
		allowed    bool
		wantReason string
	}{
		{
			name:       "nil facts fail closed",
			stage:      workflow.StageDispatchPlanning,
			facts:      nil,
			wantReason: workflow.CheckingPrerequisites,
		},
		{
			name:       "loading facts fail closed",
			stage:      workflow.StageOpen,
			facts:      &workflow.Facts{Loading: true, Flags: map[string]bool{"leadDetailsComplete": true}},
			wantReason: workflow.CheckingPrerequisites,
		},
		{
			name:    "dispatch planning ready",
			stage:   workflow.StageDispatchPlanning,
			facts:   &workflow.Facts{IsReadyForDispatch: true},
			allowed: true,
		},
		{
			name:       "dispatch planning missing fields",
			stage:      workflow.StageDispatchPlanning,
			facts:      &workflow.Facts{MissingFields: []string{"vehicle", "driver"}},
			wantReason: "Cannot move yet. Missing: vehicle, driver",
		},
		{
			name:       "site readiness incomplete",
			stage:      workflow.StageSiteReadiness,
			facts:      &workflow.Facts{},
			wantReason: "Complete all 6 Site Readiness items and upload at least one current site photo",
		},
		{
			name:    "site readiness complete",
			stage:   workflow.StageSiteReadiness,
			facts:   &workflow.Facts{IsSiteReadinessCompleted: true},
			allowed: true,
		},
		{
			name:  "order login missing break ups and files",
			stage: workflow.StageOrderLogin,
			facts: &workflow.Facts{
				OrderLogin: workflow.OrderLoginFacts{Missing: []string{"Kitchen", "Wardrobe"}},
			},
			wantReason: "Missing File BreakUps: Kitchen, Wardrobe • No Production Files uploaded",
		},
		{
			name:  "order login only files missing",
			stage: workflow.StageOrderLogin,
			facts: &workflow.Facts{
				ProductionFiles: workflow.ProductionFilesFacts{HasAny: false},
			},
			wantReason: "No Production Files uploaded",
		},
		{
			name:  "order login not ready without specifics",
			stage: workflow.StageOrderLogin,
			facts: &workflow.Facts{
				ProductionFiles: workflow.ProductionFilesFacts{HasAny: true},
			},
			wantReason: "Order login is not complete",
		},
		{
			name:    "order login ready",
			stage:   workflow.StageOrderLogin,
			facts:   &workflow.Facts{ReadyForProduction: true},
			allowed: true,
		},
		{
			name:       "final handover docs first",
			stage:      workflow.StageFinalHandover,
			facts:      &workflow.Facts{PendingTasksClear: false, IsPaid: false, PendingAmount: 10},
			wantReason: "Upload all final handover documents",
		},
		{
			name:       "final handover tasks second",
			stage:      workflow.StageFinalHandover,
			facts:      &workflow.Facts{DocsComplete: true, IsPaid: false, PendingAmount: 10},
			wantReason: "Close all pending tasks before completing the project",
		},
		{
			name:       "final handover pending payment",
			stage:      workflow.StageFinalHandover,
			facts:      &workflow.Facts{DocsComplete: true, PendingTasksClear: true, IsPaid: false, PendingAmount: 125000},
			wantReason: "Pending payment of 125,000",
		},
		{
			name:       "final handover paid flag with residue",
			stage:      workflow.StageFinalHandover,
			facts:      &workflow.Facts{DocsComplete: true, PendingTasksClear: true, IsPaid: true, PendingAmount: 0.5},
			wantReason: "Pending payment of 0.50",
		},
		{
			name:    "final handover complete",
			stage:   workflow.StageFinalHandover,
			facts:   &workflow.Facts{DocsComplete: true, PendingTasksClear: true, IsPaid: true},
			allowed: true,
		},
		{
			name:    "flag driven stage allowed",
			stage:   workflow.StageDesigning,
			facts:   &workflow.Facts{Flags: map[string]bool{"designsUploaded": true}},
			allowed: true,
		},
		{
			name:       "flag driven stage denied with missing fields",
			stage:      workflow.StageBooking,
			facts:      &workflow.Facts{MissingFields: []string{"booking amount"}},
			wantReason: "Cannot move yet. Missing: booking amount",
		},
		{
			name:       "flag driven stage denied",
			stage:      workflow.StageTechCheck,
			facts:      &workflow.Facts{},
			wantReason: "Tech Check prerequisites are not complete",
		},
		{
			name:       "terminal",
			stage:      workflow.StageProjectCompleted,
			facts:      &workflow.Facts{},
			wantReason: "Lead is in a terminal stage",
		},
		{
			name:       "unknown stage",
			stage:      workflow.Stage("warehouse"),
			facts:      &workflow.Facts{},
			wantReason: "Unknown stage",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := workflow.Evaluate(tc.stage, tc.facts)
			assert.Equal(t, tc.allowed, d.Allowed)
			if tc.allowed {
				assert.Empty(t, d.Reason)
			} else {
				assert.Equal(t, tc.wantReason, d.Reason)
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	facts := &workflow.Facts{MissingFields: []string{"vehicle"}}
	first := workflow.Evaluate(workflow.StageDispatchPlanning, facts)
	second := workflow.Evaluate(workflow.StageDispatchPlanning, facts)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"vehicle"}, facts.MissingFields)
}

func TestGateFormatAmount(t *testing.T) {
	assert.Equal(t, "1,234,567", workflow.FormatAmount(1234567))
	assert.Equal(t, "1,234.50", workflow.FormatAmount(1234.5))

	de := workflow.NewGate("de")
	assert.Equal(t, "1.234.567", de.FormatAmount(1234567))

	fallback := workflow.NewGate("not a locale!!")
	assert.Equal(t, "9,999", fallback.FormatAmount(9999))
}
