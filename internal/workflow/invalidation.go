package workflow

import (
	"fmt"
)

// PolicyVersion identifies the key layout below. Stores namespace keys with it
// so a layout change never serves entries written under the old one.
const PolicyVersion = "v1"

// Event is a mutation that cached views must converge on
type Event string

const (
	EventLeadStageChanged      Event = "leadStageChanged"
	EventActivityStatusChanged Event = "activityStatusChanged"
	EventLeadCreated           Event = "leadCreated"
	EventLeadEdited            Event = "leadEdited"
	EventLeadDeleted           Event = "leadDeleted"
	EventDocumentUploaded      Event = "documentUploaded"
)

// EventContext carries the values the key patterns are built from
type EventContext struct {
	LeadID     int64
	FromStage  Stage
	ToStage    Stage
	Stage      Stage
	FromStatus ActivityStatus
	ToStatus   ActivityStatus
}

// Cache key builders shared by the read side and the policy
const (
	KeyLeadStats      = "leadStats"
	KeyDashboardAll   = "dashboard*"
	keyLeadByIDFormat = "leadById:%d"
)

func LeadByIDKey(id int64) string { return fmt.Sprintf(keyLeadByIDFormat, id) }

func ListingKey(stage Stage) string { return "listing:" + stage.ListingKey() }

func PendingKey(status ActivityStatus) string { return "pending:" + string(status) }

func ReadinessKey(id int64) string { return fmt.Sprintf("readiness:%d", id) }

func DashboardKey(d Department) string { return "dashboard:" + string(d) }

type keyRule func(c EventContext) []string

var invalidationPolicy = map[Event]keyRule{
	EventLeadStageChanged: func(c EventContext) []string {
		return []string{
			KeyLeadStats,
			LeadByIDKey(c.LeadID),
			ListingKey(c.FromStage),
			ListingKey(c.ToStage),
			ReadinessKey(c.LeadID),
			KeyDashboardAll,
		}
	},
	EventActivityStatusChanged: func(c EventContext) []string {
		keys := []string{KeyLeadStats, LeadByIDKey(c.LeadID), ListingKey(c.Stage)}
		if c.ToStatus == StatusLost {
			keys = append(keys, ListingKey(StageLost))
		}
		keys = append(keys, pendingKeys(c.FromStatus, c.ToStatus)...)
		return append(keys, KeyDashboardAll)
	},
	EventLeadCreated: func(c EventContext) []string {
		return []string{KeyLeadStats, ListingKey(c.Stage), KeyDashboardAll}
	},
	EventLeadEdited: func(c EventContext) []string {
		keys := []string{LeadByIDKey(c.LeadID), ReadinessKey(c.LeadID), ListingKey(c.Stage)}
		keys = append(keys, pendingKeys(c.FromStatus)...)
		return append(keys, KeyDashboardAll)
	},
	EventLeadDeleted: func(c EventContext) []string {
		keys := []string{KeyLeadStats, LeadByIDKey(c.LeadID), ListingKey(c.Stage)}
		keys = append(keys, pendingKeys(c.FromStatus)...)
		return append(keys, KeyDashboardAll)
	},
	EventDocumentUploaded: func(c EventContext) []string {
		return []string{LeadByIDKey(c.LeadID), ReadinessKey(c.LeadID), ListingKey(c.Stage)}
	},
}

func pendingKeys(statuses ...ActivityStatus) []string {
	var keys []string
	for _, s := range statuses {
		if s != "" && s != StatusActive {
			keys = append(keys, PendingKey(s))
		}
	}
	return keys
}

// KeysToInvalidate returns the cache key patterns event makes stale, in a
// stable order without duplicates. Unknown events yield nil.
func KeysToInvalidate(event Event, c EventContext) []string {
	rule, ok := invalidationPolicy[event]
	if !ok {
		return nil
	}

	raw := rule(c)
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		if k == "listing:" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
