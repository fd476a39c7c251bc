package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FactQuery keys a readiness fact lookup
type FactQuery struct {
	VendorID uuid.UUID
	LeadID   int64
	Stage    Stage
}

// FactSource supplies fresh readiness facts
type FactSource interface {
	Facts(ctx context.Context, q FactQuery) (*Facts, error)
}

// LeadReader loads the workflow view of a lead
type LeadReader interface {
	Lead(ctx context.Context, vendorID uuid.UUID, leadID int64) (LeadState, error)
}

// StageMutation is the common envelope of every stage edge mutation
type StageMutation struct {
	VendorID      uuid.UUID
	LeadID        int64
	UpdatedBy     uuid.UUID
	UpdatedByName string
	From          Stage
	To            Stage
	Payload       map[string]any
}

// StageMutator applies a stage move atomically
type StageMutator interface {
	MoveStage(ctx context.Context, m StageMutation) error
}

// StatusMutation changes a lead's activity status. DueDate is set only for onHold.
type StatusMutation struct {
	LeadID    int64
	VendorID  uuid.UUID
	AccountID string
	UserID    uuid.UUID
	From      ActivityStatus
	Status    ActivityStatus
	Remark    string
	CreatedBy string
	DueDate   *time.Time
}

// StatusMutator applies an activity status change atomically
type StatusMutator interface {
	SetActivityStatus(ctx context.Context, m StatusMutation) error
}

// Notifier is a fire-and-forget sink for user-facing messages
type Notifier interface {
	Success(ctx context.Context, actor ActorContext, leadID int64, message string)
	Error(ctx context.Context, actor ActorContext, leadID int64, message string)
}

// Navigator receives the path to show after a successful stage move
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// CacheStore drops cached entries matching a key pattern
type CacheStore interface {
	Invalidate(ctx context.Context, pattern string) error
}

// Observer is notified of gate decisions and transition outcomes
type Observer interface {
	GateEvaluated(stage Stage, allowed bool)
	TransitionFinished(kind IntentKind, outcome FlowState)
	InvalidationFailed(pattern string)
}

type nopObserver struct{}

func (nopObserver) GateEvaluated(Stage, bool)                {}
func (nopObserver) TransitionFinished(IntentKind, FlowState) {}
func (nopObserver) InvalidationFailed(string)                {}

// FlowState is where a lead's transition flow currently is
type FlowState string

const (
	StateIdle           FlowState = "idle"
	StateConfirmPending FlowState = "confirmPending"
	StateSubmitting     FlowState = "submitting"
	StateSucceeded      FlowState = "succeeded"
	StateFailed         FlowState = "failed"
)

// IntentKind separates stage moves from activity status changes
type IntentKind string

const (
	IntentStage  IntentKind = "stage"
	IntentStatus IntentKind = "status"
)

// Intent is a gate-approved transition awaiting confirmation
type Intent struct {
	ID           uuid.UUID      `json:"intentId"`
	Kind         IntentKind     `json:"kind"`
	LeadID       int64          `json:"leadId"`
	LeadCode     string         `json:"leadCode"`
	VendorID     uuid.UUID      `json:"-"`
	ActorID      uuid.UUID      `json:"-"`
	AccountID    string         `json:"-"`
	Stage        Stage          `json:"stage"`
	To           Stage          `json:"toStage,omitempty"`
	FromStatus   ActivityStatus `json:"fromStatus,omitempty"`
	ToStatus     ActivityStatus `json:"toStatus,omitempty"`
	Remark       string         `json:"remark,omitempty"`
	DueDate      *time.Time     `json:"dueDate,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
	Confirmation string         `json:"confirmation"`
	Attempts     int            `json:"attempts"`
	CreatedAt    time.Time      `json:"createdAt"`
	ExpiresAt    time.Time      `json:"expiresAt"`

	successMessage string
}

// Outcome reports a confirmed transition
type Outcome struct {
	State       FlowState `json:"state"`
	Intent      Intent    `json:"intent"`
	Message     string    `json:"message"`
	NavigateTo  string    `json:"navigateTo,omitempty"`
	Invalidated []string  `json:"invalidated"`
}

// Options tunes the orchestrator
type Options struct {
	// ConfirmTTL bounds how long an intent may wait for confirmation
	ConfirmTTL time.Duration
	// SubmitTimeout bounds a single mutation call; zero means no bound
	SubmitTimeout time.Duration
	Locale        string
}

// Dependencies are the collaborators the orchestrator drives
type Dependencies struct {
	Leads     LeadReader
	Facts     FactSource
	Stages    StageMutator
	Statuses  StatusMutator
	Notifier  Notifier
	Navigator Navigator
	Cache     CacheStore
	Observer  Observer
}

type leadFlow struct {
	state  FlowState
	intent *Intent
}

// Orchestrator sequences confirm, mutate, invalidate and navigate for each lead.
// At most one mutation per lead is in flight at any time.
type Orchestrator struct {
	deps   Dependencies
	gate   *Gate
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	flows   map[int64]*leadFlow
	intents map[uuid.UUID]int64
}

// NewOrchestrator creates an orchestrator over deps
func NewOrchestrator(deps Dependencies, opts Options, logger *zap.Logger) *Orchestrator {
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if opts.ConfirmTTL <= 0 {
		opts.ConfirmTTL = 2 * time.Minute
	}
	return &Orchestrator{
		deps:    deps,
		gate:    NewGate(opts.Locale),
		opts:    opts,
		logger:  logger,
		now:     time.Now,
		flows:   make(map[int64]*leadFlow),
		intents: make(map[uuid.UUID]int64),
	}
}

// SetClock replaces the time source
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// Gate returns the readiness gate used for evaluation
func (o *Orchestrator) Gate() *Gate {
	return o.gate
}

// State returns the flow state of a lead
func (o *Orchestrator) State(leadID int64) FlowState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if f, ok := o.flows[leadID]; ok {
		return f.state
	}
	return StateIdle
}

// PendingIntent returns a copy of the lead's intent awaiting confirmation, if any
func (o *Orchestrator) PendingIntent(leadID int64) (Intent, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	f, ok := o.flows[leadID]
	if !ok || f.intent == nil {
		return Intent{}, false
	}
	return *f.intent, true
}

// EvaluateLead fetches fresh facts for the lead's current stage and runs the gate
func (o *Orchestrator) EvaluateLead(ctx context.Context, actor ActorContext, lead LeadState) (Decision, *Facts, error) {
	facts, err := o.deps.Facts.Facts(ctx, FactQuery{VendorID: actor.VendorID, LeadID: lead.ID, Stage: lead.Stage})
	if err != nil {
		return Evaluate(lead.Stage, nil), nil, fmt.Errorf("failed to load readiness facts: %w", err)
	}
	decision := o.gate.Evaluate(lead.Stage, facts)
	o.deps.Observer.GateEvaluated(lead.Stage, decision.Allowed)
	return decision, facts, nil
}

// BeginStageTransition checks the lead can move to its next stage and, if so,
// registers an intent awaiting confirmation
func (o *Orchestrator) BeginStageTransition(ctx context.Context, actor ActorContext, leadID int64, payload map[string]any) (*Intent, error) {
	if o.State(leadID) == StateSubmitting {
		return nil, ErrTransitionInFlight
	}

	lead, err := o.deps.Leads.Lead(ctx, actor.VendorID, leadID)
	if err != nil {
		return nil, err
	}

	desc, err := GetStageDescriptor(lead.Stage)
	if err != nil {
		o.logger.Error("lead has a stage outside the registry",
			zap.Int64("lead_id", leadID),
			zap.String("stage", string(lead.Stage)),
		)
		return nil, err
	}
	if desc.IsTerminal() {
		return nil, &BlockedError{Decision: deny(reasonTerminal)}
	}
	if !actor.Can(AdvanceCapability(desc.Department)) {
		return nil, ErrCapabilityDenied
	}
	if lead.IsDraft {
		return nil, &BlockedError{Decision: deny("Complete the lead details before moving it forward")}
	}
	if lead.ActivityStatus != StatusActive {
		return nil, &BlockedError{Decision: deny(fmt.Sprintf("Lead is %s; revert it to active first", lead.ActivityStatus))}
	}

	decision, _, err := o.EvaluateLead(ctx, actor, lead)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		o.logger.Debug("stage transition blocked by readiness gate",
			zap.Int64("lead_id", leadID),
			zap.String("stage", string(lead.Stage)),
			zap.String("reason", decision.Reason),
		)
		return nil, &BlockedError{Decision: decision}
	}

	next := *desc.NextStage
	nextDesc := MustStageDescriptor(next)
	in := &Intent{
		Kind:           IntentStage,
		LeadID:         lead.ID,
		LeadCode:       lead.LeadCode,
		VendorID:       actor.VendorID,
		ActorID:        actor.UserID,
		AccountID:      lead.AccountID,
		Stage:          lead.Stage,
		To:             next,
		Payload:        payload,
		Confirmation:   fmt.Sprintf("Move lead %s to %s?", lead.LeadCode, nextDesc.Label),
		successMessage: fmt.Sprintf("Lead moved to %s", nextDesc.Label),
	}
	return o.register(in)
}

// BeginStatusTransition validates an activity status change and registers an
// intent awaiting confirmation
func (o *Orchestrator) BeginStatusTransition(ctx context.Context, actor ActorContext, leadID int64, target ActivityStatus, remark string, dueDate *time.Time) (*Intent, error) {
	if o.State(leadID) == StateSubmitting {
		return nil, ErrTransitionInFlight
	}

	lead, err := o.deps.Leads.Lead(ctx, actor.VendorID, leadID)
	if err != nil {
		return nil, err
	}

	ack, err := RequestTransition(lead, target, remark, dueDate)
	if err != nil {
		if errors.Is(err, ErrIllegalTransition) {
			o.logger.Error("illegal activity status transition requested",
				zap.Int64("lead_id", leadID),
				zap.String("from", string(lead.ActivityStatus)),
				zap.String("to", string(target)),
				zap.String("user_id", actor.UserID.String()),
			)
		}
		return nil, err
	}
	if !actor.Can(ack.Edge.Capability) {
		return nil, ErrCapabilityDenied
	}

	in := &Intent{
		Kind:           IntentStatus,
		LeadID:         lead.ID,
		LeadCode:       lead.LeadCode,
		VendorID:       actor.VendorID,
		ActorID:        actor.UserID,
		AccountID:      lead.AccountID,
		Stage:          lead.Stage,
		FromStatus:     ack.From,
		ToStatus:       ack.To,
		Remark:         ack.Remark,
		DueDate:        ack.DueDate,
		Confirmation:   statusConfirmation(lead.LeadCode, ack),
		successMessage: ack.Edge.SuccessMessage,
	}
	return o.register(in)
}

func statusConfirmation(code string, ack Ack) string {
	switch ack.To {
	case StatusOnHold:
		return fmt.Sprintf("Put lead %s on hold until %s?", code, ack.DueDate.Format("2006-01-02"))
	case StatusLostApproval:
		return fmt.Sprintf("Send lead %s for lost approval?", code)
	case StatusLost:
		return fmt.Sprintf("Mark lead %s as lost?", code)
	default:
		return fmt.Sprintf("Revert lead %s to active?", code)
	}
}

func (o *Orchestrator) register(in *Intent) (*Intent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	f, ok := o.flows[in.LeadID]
	if ok && f.state == StateSubmitting {
		return nil, ErrTransitionInFlight
	}
	if ok && f.intent != nil {
		delete(o.intents, f.intent.ID)
	}

	now := o.now()
	in.ID = uuid.New()
	in.CreatedAt = now
	in.ExpiresAt = now.Add(o.opts.ConfirmTTL)

	o.flows[in.LeadID] = &leadFlow{state: StateConfirmPending, intent: in}
	o.intents[in.ID] = in.LeadID

	cp := *in
	return &cp, nil
}

// lookup returns the flow owning intentID for actor. Caller holds o.mu.
func (o *Orchestrator) lookup(actor ActorContext, intentID uuid.UUID) (*leadFlow, error) {
	leadID, ok := o.intents[intentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	f, ok := o.flows[leadID]
	if !ok || f.intent == nil || f.intent.ID != intentID {
		return nil, ErrIntentNotFound
	}
	if f.intent.VendorID != actor.VendorID || f.intent.ActorID != actor.UserID {
		return nil, ErrIntentNotFound
	}
	return f, nil
}

// drop forgets a lead's flow. Caller holds o.mu.
func (o *Orchestrator) drop(leadID int64) {
	if f, ok := o.flows[leadID]; ok && f.intent != nil {
		delete(o.intents, f.intent.ID)
	}
	delete(o.flows, leadID)
}

// Cancel abandons an intent awaiting confirmation. It has no side effects.
func (o *Orchestrator) Cancel(actor ActorContext, intentID uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	f, err := o.lookup(actor, intentID)
	if err != nil {
		return err
	}
	if f.state == StateSubmitting {
		return ErrTransitionInFlight
	}
	o.drop(f.intent.LeadID)
	return nil
}

// Confirm issues the mutation for an intent. Readiness is not re-checked here.
// A failed mutation keeps the intent so it can be confirmed again unchanged.
func (o *Orchestrator) Confirm(ctx context.Context, actor ActorContext, intentID uuid.UUID) (*Outcome, error) {
	o.mu.Lock()
	f, err := o.lookup(actor, intentID)
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}
	if f.state == StateSubmitting {
		o.mu.Unlock()
		return nil, ErrTransitionInFlight
	}
	if o.now().After(f.intent.ExpiresAt) {
		o.drop(f.intent.LeadID)
		o.mu.Unlock()
		return nil, ErrIntentExpired
	}
	f.state = StateSubmitting
	f.intent.Attempts++
	in := *f.intent
	o.mu.Unlock()

	if err := o.submit(ctx, actor, in); err != nil {
		failure := newMutationFailure(err)
		o.logger.Warn("transition mutation failed",
			zap.Int64("lead_id", in.LeadID),
			zap.String("kind", string(in.Kind)),
			zap.Int("attempt", in.Attempts),
			zap.Error(err),
		)
		o.deps.Observer.TransitionFinished(in.Kind, StateFailed)
		o.notifyError(ctx, actor, in.LeadID, failure.Message)

		o.mu.Lock()
		f.state = StateIdle
		f.intent.ExpiresAt = o.now().Add(o.opts.ConfirmTTL)
		o.mu.Unlock()
		return nil, failure
	}

	// The mutation is committed; follow-up steps must not be cut short by the caller going away.
	after := context.WithoutCancel(ctx)

	event, ectx := invalidationEvent(in)
	keys := KeysToInvalidate(event, ectx)
	o.invalidate(after, in.LeadID, keys)

	if o.deps.Notifier != nil {
		o.deps.Notifier.Success(after, actor, in.LeadID, in.successMessage)
	}

	out := &Outcome{
		State:       StateSucceeded,
		Intent:      in,
		Message:     in.successMessage,
		Invalidated: keys,
	}
	if in.Kind == IntentStage {
		out.NavigateTo = MustStageDescriptor(in.To).ListingPath
		if o.deps.Navigator != nil && out.NavigateTo != "" {
			o.deps.Navigator.Navigate(after, out.NavigateTo)
		}
	}

	o.deps.Observer.TransitionFinished(in.Kind, StateSucceeded)
	o.logger.Info("transition succeeded",
		zap.Int64("lead_id", in.LeadID),
		zap.String("kind", string(in.Kind)),
		zap.String("user_id", actor.UserID.String()),
	)

	o.mu.Lock()
	o.drop(in.LeadID)
	o.mu.Unlock()
	return out, nil
}

func (o *Orchestrator) submit(ctx context.Context, actor ActorContext, in Intent) error {
	if o.opts.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.SubmitTimeout)
		defer cancel()
	}

	switch in.Kind {
	case IntentStage:
		return o.deps.Stages.MoveStage(ctx, StageMutation{
			VendorID:      in.VendorID,
			LeadID:        in.LeadID,
			UpdatedBy:     actor.UserID,
			UpdatedByName: actor.Name,
			From:          in.Stage,
			To:            in.To,
			Payload:       in.Payload,
		})
	case IntentStatus:
		m := StatusMutation{
			LeadID:    in.LeadID,
			VendorID:  in.VendorID,
			AccountID: in.AccountID,
			UserID:    actor.UserID,
			From:      in.FromStatus,
			Status:    in.ToStatus,
			Remark:    in.Remark,
			CreatedBy: actor.Name,
		}
		if in.ToStatus == StatusOnHold {
			m.DueDate = in.DueDate
		}
		return o.deps.Statuses.SetActivityStatus(ctx, m)
	default:
		return fmt.Errorf("unknown intent kind %q", in.Kind)
	}
}

func invalidationEvent(in Intent) (Event, EventContext) {
	if in.Kind == IntentStage {
		return EventLeadStageChanged, EventContext{LeadID: in.LeadID, FromStage: in.Stage, ToStage: in.To, Stage: in.To}
	}
	return EventActivityStatusChanged, EventContext{
		LeadID: in.LeadID, Stage: in.Stage, FromStatus: in.FromStatus, ToStatus: in.ToStatus,
	}
}

// invalidate never fails the transition; a stale cache only costs a manual refresh
func (o *Orchestrator) invalidate(ctx context.Context, leadID int64, keys []string) {
	if o.deps.Cache == nil {
		return
	}
	for _, k := range keys {
		if err := o.deps.Cache.Invalidate(ctx, k); err != nil {
			o.deps.Observer.InvalidationFailed(k)
			o.logger.Warn("cache invalidation failed",
				zap.Int64("lead_id", leadID),
				zap.String("pattern", k),
				zap.Error(err),
			)
		}
	}
}

func (o *Orchestrator) notifyError(ctx context.Context, actor ActorContext, leadID int64, msg string) {
	if o.deps.Notifier != nil {
		o.deps.Notifier.Error(context.WithoutCancel(ctx), actor, leadID, msg)
	}
}

// Sweep drops intents whose confirmation window closed before now and
// returns how many were removed
func (o *Orchestrator) Sweep(now time.Time) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	removed := 0
	for leadID, f := range o.flows {
		if f.state == StateSubmitting || f.intent == nil {
			continue
		}
		if now.After(f.intent.ExpiresAt) {
			o.drop(leadID)
			removed++
		}
	}
	return removed
}
