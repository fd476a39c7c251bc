package workflow

// Prompt names a dialog the dashboard should open on its own when a lead is shown
type Prompt string

const (
	PromptNone               Prompt = "none"
	PromptReviewLostApproval Prompt = "reviewLostApproval"
	PromptResumeOnHold       Prompt = "resumeOnHold"
	PromptCompleteDraft      Prompt = "completeDraft"
	PromptAssignLead         Prompt = "assignLead"
)

// LeadFlags are the lead properties auto-prompting depends on
type LeadFlags struct {
	IsDraft     bool
	HoldDue     bool
	HasAssignee bool
}

type promptRule struct {
	prompt  Prompt
	matches func(stage Stage, status ActivityStatus, caps CapabilitySet, f LeadFlags) bool
}

// First match wins.
var promptRules = []promptRule{
	{PromptReviewLostApproval, func(_ Stage, st ActivityStatus, caps CapabilitySet, _ LeadFlags) bool {
		return st == StatusLostApproval && caps.Has(CapApproveLost)
	}},
	{PromptResumeOnHold, func(_ Stage, st ActivityStatus, caps CapabilitySet, f LeadFlags) bool {
		return st == StatusOnHold && f.HoldDue && caps.Has(CapRevertStatus)
	}},
	{PromptCompleteDraft, func(_ Stage, st ActivityStatus, caps CapabilitySet, f LeadFlags) bool {
		return st == StatusActive && f.IsDraft && caps.Has(CapEditLead)
	}},
	{PromptAssignLead, func(s Stage, st ActivityStatus, caps CapabilitySet, f LeadFlags) bool {
		return s == StageOpen && st == StatusActive && !f.HasAssignee && caps.Has(CapReassignLead)
	}},
}

// AutoPrompt picks the prompt to show for a lead, or PromptNone
func AutoPrompt(stage Stage, status ActivityStatus, caps CapabilitySet, flags LeadFlags) Prompt {
	for _, r := range promptRules {
		if r.matches(stage, status, caps, flags) {
			return r.prompt
		}
	}
	return PromptNone
}
