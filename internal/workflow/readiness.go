package workflow

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CheckingPrerequisites is the reason given while facts are still loading
const CheckingPrerequisites = "Checking prerequisites…"

const (
	reasonSiteReadiness   = "Complete all 6 Site Readiness items and upload at least one current site photo"
	reasonNoProdFiles     = "No Production Files uploaded"
	reasonOrderLogin      = "Order login is not complete"
	reasonHandoverDocs    = "Upload all final handover documents"
	reasonHandoverTasks   = "Close all pending tasks before completing the project"
	reasonTerminal        = "Lead is in a terminal stage"
	reasonUnknownStage    = "Unknown stage"
	reasonSeparator       = " • "
	missingFieldsPrefix   = "Cannot move yet. Missing: "
	missingBreakUpsPrefix = "Missing File BreakUps: "
	pendingPaymentPrefix  = "Pending payment of "
)

// OrderLoginFacts lists the file break-ups still missing at order login
type OrderLoginFacts struct {
	Missing []string `json:"missing"`
}

// ProductionFilesFacts tells whether any production file exists
type ProductionFilesFacts struct {
	HasAny bool `json:"hasAny"`
}

// Facts is the backend-supplied readiness bag for one lead and stage
type Facts struct {
	Loading bool `json:"loading,omitempty"`

	IsReadyForDispatch       bool     `json:"is_ready_for_dispatch"`
	MissingFields            []string `json:"missing_fields,omitempty"`
	IsSiteReadinessCompleted bool     `json:"is_site_readiness_completed"`

	ReadyForProduction bool                 `json:"readyForProduction"`
	OrderLogin         OrderLoginFacts      `json:"orderLogin"`
	ProductionFiles    ProductionFilesFacts `json:"productionFiles"`

	DocsComplete      bool    `json:"docs_complete"`
	PendingTasksClear bool    `json:"pending_tasks_clear"`
	IsPaid            bool    `json:"is_paid"`
	PendingAmount     float64 `json:"pending_amount"`

	// Flags holds the named predicates of stages without a dedicated rule
	Flags map[string]bool `json:"flags,omitempty"`
}

// Decision is the gate's verdict on moving a lead out of its stage
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

type gateRule func(g *Gate, d StageDescriptor, f *Facts) Decision

var gateRules = map[Stage]gateRule{
	StageDispatchPlanning: func(_ *Gate, _ StageDescriptor, f *Facts) Decision {
		if f.IsReadyForDispatch {
			return allow()
		}
		return deny(missingFieldsPrefix + strings.Join(f.MissingFields, ", "))
	},
	StageSiteReadiness: func(_ *Gate, _ StageDescriptor, f *Facts) Decision {
		if f.IsSiteReadinessCompleted {
			return allow()
		}
		return deny(reasonSiteReadiness)
	},
	StageOrderLogin: func(_ *Gate, _ StageDescriptor, f *Facts) Decision {
		if f.ReadyForProduction {
			return allow()
		}
		var parts []string
		if len(f.OrderLogin.Missing) > 0 {
			parts = append(parts, missingBreakUpsPrefix+strings.Join(f.OrderLogin.Missing, ", "))
		}
		if !f.ProductionFiles.HasAny {
			parts = append(parts, reasonNoProdFiles)
		}
		if len(parts) == 0 {
			return deny(reasonOrderLogin)
		}
		return deny(strings.Join(parts, reasonSeparator))
	},
	StageFinalHandover: func(g *Gate, _ StageDescriptor, f *Facts) Decision {
		switch {
		case !f.DocsComplete:
			return deny(reasonHandoverDocs)
		case !f.PendingTasksClear:
			return deny(reasonHandoverTasks)
		case !f.IsPaid || f.PendingAmount != 0:
			return deny(pendingPaymentPrefix + g.FormatAmount(f.PendingAmount))
		}
		return allow()
	},
}

func flagRule(_ *Gate, d StageDescriptor, f *Facts) Decision {
	if f.Flags[d.ReadinessKey] {
		return allow()
	}
	if len(f.MissingFields) > 0 {
		return deny(missingFieldsPrefix + strings.Join(f.MissingFields, ", "))
	}
	return deny(d.Label + " prerequisites are not complete")
}

// Gate evaluates readiness facts
type Gate struct {
	tag language.Tag
}

// NewGate returns a gate formatting amounts for locale, falling back to English
func NewGate(locale string) *Gate {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Gate{tag: tag}
}

var defaultGate = &Gate{tag: language.English}

// Evaluate decides whether a lead can leave stage given facts, using the default gate
func Evaluate(stage Stage, facts *Facts) Decision {
	return defaultGate.Evaluate(stage, facts)
}

// Evaluate decides whether a lead can leave stage given facts. It never
// allows a move on missing data.
func (g *Gate) Evaluate(stage Stage, facts *Facts) Decision {
	if facts == nil || facts.Loading {
		return deny(CheckingPrerequisites)
	}

	d, err := GetStageDescriptor(stage)
	if err != nil {
		return deny(reasonUnknownStage)
	}
	if d.IsTerminal() {
		return deny(reasonTerminal)
	}

	rule, ok := gateRules[stage]
	if !ok {
		rule = flagRule
	}
	return rule(g, d, facts)
}

// FormatAmount renders v with locale-aware thousands separators
func (g *Gate) FormatAmount(v float64) string {
	p := message.NewPrinter(g.tag)
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return p.Sprintf("%d", int64(v))
	}
	return p.Sprintf("%.2f", v)
}

// FormatAmount formats with the default gate
func FormatAmount(v float64) string {
	return defaultGate.FormatAmount(v)
}
