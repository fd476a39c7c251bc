package workflow

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActivityStatus is the side-state layered on top of a lead's stage
type ActivityStatus string

const (
	StatusActive       ActivityStatus = "active"
	StatusOnHold       ActivityStatus = "onHold"
	StatusLostApproval ActivityStatus = "lostApproval"
	StatusLost         ActivityStatus = "lost"
)

// IsValid checks if the status is known
func (s ActivityStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusOnHold, StatusLostApproval, StatusLost:
		return true
	}
	return false
}

// ActivityStatuses returns every status
func ActivityStatuses() []ActivityStatus {
	return []ActivityStatus{StatusActive, StatusOnHold, StatusLostApproval, StatusLost}
}

// LeadState is the slice of a lead the workflow core reasons about
type LeadState struct {
	ID             int64
	LeadCode       string
	VendorID       uuid.UUID
	AccountID      string
	Stage          Stage
	ActivityStatus ActivityStatus
	IsDraft        bool
	AssignedTo     *uuid.UUID
	HoldDueDate    *time.Time
}

// EdgeKind separates entering a side-state from reverting out of it
type EdgeKind string

const (
	EdgeEntry  EdgeKind = "entry"
	EdgeRevert EdgeKind = "revert"
)

// StatusEdge is one legal activity status transition
type StatusEdge struct {
	From           ActivityStatus
	To             ActivityStatus
	Kind           EdgeKind
	NeedsDueDate   bool
	Capability     Capability
	SuccessMessage string
}

type statusEdgeKey struct {
	from ActivityStatus
	to   ActivityStatus
}

// There is no active -> lost edge: losing a lead always passes through approval.
var statusEdges = map[statusEdgeKey]StatusEdge{
	{StatusActive, StatusOnHold}: {
		From: StatusActive, To: StatusOnHold, Kind: EdgeEntry, NeedsDueDate: true,
		Capability: CapMarkOnHold, SuccessMessage: "Lead marked as on hold",
	},
	{StatusActive, StatusLostApproval}: {
		From: StatusActive, To: StatusLostApproval, Kind: EdgeEntry,
		Capability: CapProposeLost, SuccessMessage: "Lead sent for lost approval",
	},
	{StatusOnHold, StatusActive}: {
		From: StatusOnHold, To: StatusActive, Kind: EdgeRevert,
		Capability: CapRevertStatus, SuccessMessage: "Lead reverted to active",
	},
	{StatusLostApproval, StatusLost}: {
		From: StatusLostApproval, To: StatusLost, Kind: EdgeEntry,
		Capability: CapApproveLost, SuccessMessage: "Lead marked as lost",
	},
	{StatusLostApproval, StatusActive}: {
		From: StatusLostApproval, To: StatusActive, Kind: EdgeRevert,
		Capability: CapRevertStatus, SuccessMessage: "Lead reverted to active",
	},
}

// EdgeFor looks up the edge from -> to
func EdgeFor(from, to ActivityStatus) (StatusEdge, bool) {
	e, ok := statusEdges[statusEdgeKey{from, to}]
	return e, ok
}

// Ack acknowledges a validated status transition request
type Ack struct {
	LeadID  int64
	From    ActivityStatus
	To      ActivityStatus
	Kind    EdgeKind
	Remark  string
	DueDate *time.Time
	Edge    StatusEdge
}

// RequestTransition validates moving lead into target. It performs no I/O.
func RequestTransition(lead LeadState, target ActivityStatus, remark string, dueDate *time.Time) (Ack, error) {
	if lead.Stage.IsTerminal() || lead.ActivityStatus == StatusLost {
		return Ack{}, &IllegalTransitionError{From: lead.ActivityStatus, To: target}
	}

	edge, ok := EdgeFor(lead.ActivityStatus, target)
	if !ok {
		return Ack{}, &IllegalTransitionError{From: lead.ActivityStatus, To: target}
	}

	remark = strings.TrimSpace(remark)
	if remark == "" {
		return Ack{}, &ValidationError{Field: "remark", Message: "a remark is required"}
	}
	if edge.NeedsDueDate && (dueDate == nil || dueDate.IsZero()) {
		return Ack{}, &ValidationError{Field: "dueDate", Message: "a due date is required to put a lead on hold"}
	}

	ack := Ack{
		LeadID: lead.ID,
		From:   edge.From,
		To:     edge.To,
		Kind:   edge.Kind,
		Remark: remark,
		Edge:   edge,
	}
	if edge.NeedsDueDate {
		d := *dueDate
		ack.DueDate = &d
	}
	return ack, nil
}
