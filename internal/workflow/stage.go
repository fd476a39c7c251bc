// Package workflow holds the lead pipeline rules: the stage registry, the
// activity-status machine, the readiness gate, the cache invalidation policy
// and the orchestrator that sequences a transition from intent to navigation.
package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Stage is a named position in the lead pipeline
type Stage string

const (
	StageOpen                   Stage = "open"
	StageInitialSiteMeasurement Stage = "initial-site-measurement"
	StageDesigning              Stage = "designing"
	StageBooking                Stage = "booking"
	StageClientDocumentation    Stage = "client-documentation"
	StageClientApproval         Stage = "client-approval"
	StageTechCheck              Stage = "tech-check"
	StageOrderLogin             Stage = "order-login"
	StageProduction             Stage = "production"
	StageReadyToDispatch        Stage = "ready-to-dispatch"
	StageSiteReadiness          Stage = "site-readiness"
	StageDispatchPlanning       Stage = "dispatch-planning"
	StageDispatch               Stage = "dispatch"
	StageUnderInstallation      Stage = "under-installation"
	StageFinalHandover          Stage = "final-handover"
	StageProjectCompleted       Stage = "project-completed"
	StageLost                   Stage = "lost"
)

// Department owns the stages a role is allowed to advance
type Department string

const (
	DepartmentSales        Department = "sales"
	DepartmentSite         Department = "site"
	DepartmentTechCheck    Department = "techCheck"
	DepartmentProduction   Department = "production"
	DepartmentInstallation Department = "installation"
)

// Departments returns every department in display order
func Departments() []Department {
	return []Department{DepartmentSales, DepartmentSite, DepartmentTechCheck, DepartmentProduction, DepartmentInstallation}
}

// IsValid checks if the department is known
func (d Department) IsValid() bool {
	switch d {
	case DepartmentSales, DepartmentSite, DepartmentTechCheck, DepartmentProduction, DepartmentInstallation:
		return true
	}
	return false
}

// ErrUnknownStage is matched by every UnknownStageError
var ErrUnknownStage = errors.New("unknown stage")

// UnknownStageError reports a stage value outside the registry.
// It signals a data or programming error, not a recoverable condition.
type UnknownStageError struct {
	Stage string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage %q", e.Stage)
}

func (e *UnknownStageError) Is(target error) bool {
	return target == ErrUnknownStage
}

// StageDescriptor is the registry metadata of a single stage
type StageDescriptor struct {
	Stage        Stage      `json:"stage"`
	Label        string     `json:"label"`
	NextStage    *Stage     `json:"nextStage,omitempty"`
	ReadinessKey string     `json:"readinessKey,omitempty"`
	DefaultTabID string     `json:"defaultTabId"`
	Department   Department `json:"department"`
	ListingKey   string     `json:"listingKey"`
	ListingPath  string     `json:"listingPath"`
	Order        int        `json:"order"`
}

// IsTerminal reports whether the descriptor has no forward edge
func (d StageDescriptor) IsTerminal() bool {
	return d.NextStage == nil
}

type stageEntry struct {
	label        string
	next         Stage
	readinessKey string
	defaultTab   string
	department   Department
	listingKey   string
	listingPath  string
}

// pipeline is the forward order of non-terminal-failure stages
var pipeline = []Stage{
	StageOpen,
	StageInitialSiteMeasurement,
	StageDesigning,
	StageBooking,
	StageClientDocumentation,
	StageClientApproval,
	StageTechCheck,
	StageOrderLogin,
	StageProduction,
	StageReadyToDispatch,
	StageSiteReadiness,
	StageDispatchPlanning,
	StageDispatch,
	StageUnderInstallation,
	StageFinalHandover,
	StageProjectCompleted,
}

var registry = map[Stage]stageEntry{
	StageOpen: {
		label: "Open", next: StageInitialSiteMeasurement, readinessKey: "leadDetailsComplete",
		defaultTab: "details", department: DepartmentSales, listingKey: "open",
		listingPath: "/dashboard/sales-executive/leads/",
	},
	StageInitialSiteMeasurement: {
		label: "Initial Site Measurement", next: StageDesigning, readinessKey: "siteMeasurementUploaded",
		defaultTab: "site-measurement", department: DepartmentSite, listingKey: "initialSiteMeasurement",
		listingPath: "/dashboard/site-supervisor/initial-site-measurement/",
	},
	StageDesigning: {
		label: "Designing", next: StageBooking, readinessKey: "designsUploaded",
		defaultTab: "designs", department: DepartmentSales, listingKey: "designing",
		listingPath: "/dashboard/sales-executive/designing/",
	},
	StageBooking: {
		label: "Booking", next: StageClientDocumentation, readinessKey: "bookingAmountReceived",
		defaultTab: "booking", department: DepartmentSales, listingKey: "booking",
		listingPath: "/dashboard/sales-executive/booking/",
	},
	StageClientDocumentation: {
		label: "Client Documentation", next: StageClientApproval, readinessKey: "clientDocumentsUploaded",
		defaultTab: "client-documentation", department: DepartmentSales, listingKey: "clientDocumentation",
		listingPath: "/dashboard/sales-executive/client-documentation/",
	},
	StageClientApproval: {
		label: "Client Approval", next: StageTechCheck, readinessKey: "clientApproved",
		defaultTab: "client-approval", department: DepartmentSales, listingKey: "clientApproval",
		listingPath: "/dashboard/sales-executive/client-approval/",
	},
	StageTechCheck: {
		label: "Tech Check", next: StageOrderLogin, readinessKey: "techCheckApproved",
		defaultTab: "tech-check", department: DepartmentTechCheck, listingKey: "techCheck",
		listingPath: "/dashboard/tech-check/tech-check/",
	},
	StageOrderLogin: {
		label: "Order Login", next: StageProduction, readinessKey: "readyForProduction",
		defaultTab: "order-login", department: DepartmentProduction, listingKey: "orderLogin",
		listingPath: "/dashboard/production/order-login/",
	},
	StageProduction: {
		label: "Production", next: StageReadyToDispatch, readinessKey: "postProductionComplete",
		defaultTab: "production", department: DepartmentProduction, listingKey: "production",
		listingPath: "/dashboard/production/production/",
	},
	StageReadyToDispatch: {
		label: "Ready To Dispatch", next: StageSiteReadiness, readinessKey: "readyForSiteReadiness",
		defaultTab: "ready-to-dispatch", department: DepartmentInstallation, listingKey: "readyToDispatch",
		listingPath: "/dashboard/installation/ready-to-dispatch/",
	},
	StageSiteReadiness: {
		label: "Site Readiness", next: StageDispatchPlanning, readinessKey: "siteReadinessCompleted",
		defaultTab: "site-readiness", department: DepartmentInstallation, listingKey: "siteReadiness",
		listingPath: "/dashboard/installation/site-readiness/",
	},
	StageDispatchPlanning: {
		label: "Dispatch Planning", next: StageDispatch, readinessKey: "readyForDispatch",
		defaultTab: "dispatch-planning", department: DepartmentInstallation, listingKey: "dispatchPlanning",
		listingPath: "/dashboard/installation/dispatch-planning/",
	},
	StageDispatch: {
		label: "Dispatch", next: StageUnderInstallation, readinessKey: "readyForPostDispatch",
		defaultTab: "dispatch", department: DepartmentInstallation, listingKey: "dispatch",
		listingPath: "/dashboard/installation/dispatch/",
	},
	StageUnderInstallation: {
		label: "Under Installation", next: StageFinalHandover, readinessKey: "installationComplete",
		defaultTab: "under-installation", department: DepartmentInstallation, listingKey: "underInstallation",
		listingPath: "/dashboard/installation/under-installation/",
	},
	StageFinalHandover: {
		label: "Final Handover", next: StageProjectCompleted, readinessKey: "finalHandoverReady",
		defaultTab: "final-handover", department: DepartmentInstallation, listingKey: "finalHandover",
		listingPath: "/dashboard/installation/final-handover/",
	},
	StageProjectCompleted: {
		label: "Project Completed", defaultTab: "summary", department: DepartmentInstallation,
		listingKey: "projectCompleted", listingPath: "/dashboard/installation/project-completed/",
	},
	StageLost: {
		label: "Lost", defaultTab: "summary", department: DepartmentSales,
		listingKey: "lost", listingPath: "/dashboard/sales-executive/lost/",
	},
}

// byListingKey resolves camelCase listing keys back to stages
var byListingKey = func() map[string]Stage {
	m := make(map[string]Stage, len(registry))
	for s, e := range registry {
		m[e.listingKey] = s
	}
	return m
}()

// GetStageDescriptor returns a copy of the registry entry for stage
func GetStageDescriptor(stage Stage) (StageDescriptor, error) {
	e, ok := registry[stage]
	if !ok {
		return StageDescriptor{}, &UnknownStageError{Stage: string(stage)}
	}

	d := StageDescriptor{
		Stage:        stage,
		Label:        e.label,
		ReadinessKey: e.readinessKey,
		DefaultTabID: e.defaultTab,
		Department:   e.department,
		ListingKey:   e.listingKey,
		ListingPath:  e.listingPath,
		Order:        stageOrder(stage),
	}
	if e.next != "" {
		next := e.next
		d.NextStage = &next
	}
	return d, nil
}

// MustStageDescriptor is GetStageDescriptor for compile-time known stages
func MustStageDescriptor(stage Stage) StageDescriptor {
	d, err := GetStageDescriptor(stage)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseStage accepts both the kebab wire value and the camelCase listing key
func ParseStage(s string) (Stage, error) {
	s = strings.TrimSpace(s)
	if _, ok := registry[Stage(s)]; ok {
		return Stage(s), nil
	}
	if st, ok := byListingKey[s]; ok {
		return st, nil
	}
	return "", &UnknownStageError{Stage: s}
}

// Stages returns the pipeline stages in order
func Stages() []Stage {
	out := make([]Stage, len(pipeline))
	copy(out, pipeline)
	return out
}

// AllStages returns the pipeline followed by the lost terminal
func AllStages() []Stage {
	return append(Stages(), StageLost)
}

// IsValid checks if the stage is in the registry
func (s Stage) IsValid() bool {
	_, ok := registry[s]
	return ok
}

// IsTerminal reports whether no forward transition exists from s
func (s Stage) IsTerminal() bool {
	e, ok := registry[s]
	return ok && e.next == ""
}

// ListingKey returns the camelCase listing key, or "" for unknown stages
func (s Stage) ListingKey() string {
	return registry[s].listingKey
}

// Next returns the forward stage, if any
func (s Stage) Next() (Stage, bool) {
	e, ok := registry[s]
	if !ok || e.next == "" {
		return "", false
	}
	return e.next, true
}

// IsForwardEdge reports whether to is the single legal successor of from
func IsForwardEdge(from, to Stage) bool {
	next, ok := from.Next()
	return ok && next == to
}

// StagesForDepartment returns the pipeline stages owned by a department
func StagesForDepartment(d Department) []Stage {
	var out []Stage
	for _, s := range pipeline {
		if registry[s].department == d {
			out = append(out, s)
		}
	}
	return out
}

func stageOrder(stage Stage) int {
	for i, s := range pipeline {
		if s == stage {
			return i + 1
		}
	}
	return 0
}
