package workflow

import (
	"github.com/google/uuid"
)

// Role is the dashboard a user works in
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleSalesExecutive Role = "sales-executive"
	RoleSiteSupervisor Role = "site-supervisor"
	RoleTechCheck      Role = "tech-check"
	RoleProduction     Role = "production"
	RoleInstallation   Role = "installation"
	// RoleService is the identity of trusted backend callers using the API key
	RoleService Role = "service"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSalesExecutive, RoleSiteSupervisor, RoleTechCheck,
		RoleProduction, RoleInstallation, RoleService:
		return true
	}
	return false
}

// Capability is a single authorization grant
type Capability string

const (
	CapViewLeads           Capability = "leads:view"
	CapEditLead            Capability = "leads:edit"
	CapDeleteLead          Capability = "leads:delete"
	CapReassignLead        Capability = "leads:reassign"
	CapAdvanceSales        Capability = "stage:advance:sales"
	CapAdvanceSite         Capability = "stage:advance:site"
	CapAdvanceTechCheck    Capability = "stage:advance:tech-check"
	CapAdvanceProduction   Capability = "stage:advance:production"
	CapAdvanceInstallation Capability = "stage:advance:installation"
	CapMarkOnHold          Capability = "status:on-hold"
	CapProposeLost         Capability = "status:propose-lost"
	CapApproveLost         Capability = "status:approve-lost"
	CapRevertStatus        Capability = "status:revert"
	CapUploadDocuments     Capability = "documents:upload"
	CapManageFacts         Capability = "readiness:manage"
	CapViewAudit           Capability = "audit:view"
)

var allCapabilities = []Capability{
	CapViewLeads, CapEditLead, CapDeleteLead, CapReassignLead,
	CapAdvanceSales, CapAdvanceSite, CapAdvanceTechCheck, CapAdvanceProduction, CapAdvanceInstallation,
	CapMarkOnHold, CapProposeLost, CapApproveLost, CapRevertStatus,
	CapUploadDocuments, CapManageFacts, CapViewAudit,
}

// CapabilitySet is the resolved grant set of an actor
type CapabilitySet map[Capability]struct{}

// Has reports whether c is granted
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// List returns the granted capabilities in declaration order
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for _, c := range allCapabilities {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: allCapabilities,
	RoleSalesExecutive: {
		CapViewLeads, CapEditLead, CapReassignLead, CapAdvanceSales,
		CapMarkOnHold, CapProposeLost, CapRevertStatus, CapUploadDocuments,
	},
	RoleSiteSupervisor: {
		CapViewLeads, CapAdvanceSite, CapMarkOnHold, CapRevertStatus, CapUploadDocuments,
	},
	RoleTechCheck: {
		CapViewLeads, CapAdvanceTechCheck, CapMarkOnHold, CapRevertStatus, CapUploadDocuments,
	},
	RoleProduction: {
		CapViewLeads, CapAdvanceProduction, CapUploadDocuments,
	},
	RoleInstallation: {
		CapViewLeads, CapAdvanceInstallation, CapMarkOnHold, CapRevertStatus, CapUploadDocuments,
	},
	RoleService: {
		CapViewLeads, CapManageFacts, CapUploadDocuments,
	},
}

// CapabilitiesFor resolves the capability set of a role
func CapabilitiesFor(role Role) CapabilitySet {
	set := make(CapabilitySet)
	for _, c := range roleCapabilities[role] {
		set[c] = struct{}{}
	}
	return set
}

// AdvanceCapability returns the capability needed to move a lead out of a stage
// owned by the department
func AdvanceCapability(d Department) Capability {
	switch d {
	case DepartmentSales:
		return CapAdvanceSales
	case DepartmentSite:
		return CapAdvanceSite
	case DepartmentTechCheck:
		return CapAdvanceTechCheck
	case DepartmentProduction:
		return CapAdvanceProduction
	default:
		return CapAdvanceInstallation
	}
}

// ActorContext identifies who is acting, for which vendor
type ActorContext struct {
	VendorID uuid.UUID
	UserID   uuid.UUID
	Role     Role
	Name     string
}

// Capabilities resolves the actor's capability set
func (a ActorContext) Capabilities() CapabilitySet {
	return CapabilitiesFor(a.Role)
}

// Can reports whether the actor holds c
func (a ActorContext) Can(c Capability) bool {
	return a.Capabilities().Has(c)
}
