package jobs

import (
	"context"
	"time"

	"github.com/woodcraft-crm/leadflow-api/internal/cache"
	"github.com/woodcraft-crm/leadflow-api/internal/domain"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

// HoldReminderJobName is the name of the on-hold follow-up job
const HoldReminderJobName = "hold_reminder"

// holdReminderBatch caps how many leads one run reminds
const holdReminderBatch = 500

// DueHoldSource lists on-hold leads whose due date has passed
type DueHoldSource interface {
	ListDueHolds(ctx context.Context, day, remindedBefore time.Time, limit int) ([]domain.Lead, error)
	MarkHoldReminded(ctx context.Context, id int64, at time.Time) error
}

// HoldNotifier delivers one reminder for a lead
type HoldNotifier interface {
	HoldReminder(ctx context.Context, lead *domain.Lead) error
}

// ReminderCounter records sent reminders. metrics.Metrics satisfies it.
type ReminderCounter interface {
	HoldRemindersSent(n int)
}

// HoldReminderJob reminds assignees once per day about on-hold leads whose
// follow-up date has arrived
type HoldReminderJob struct {
	leads    DueHoldSource
	notifier HoldNotifier
	cache    cache.Store
	counter  ReminderCounter
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

// NewHoldReminderJob creates the job. counter may be nil.
func NewHoldReminderJob(leads DueHoldSource, notifier HoldNotifier, store cache.Store, counter ReminderCounter, logger *zap.Logger, timeout time.Duration) *HoldReminderJob {
	return &HoldReminderJob{
		leads:    leads,
		notifier: notifier,
		cache:    store,
		counter:  counter,
		logger:   logger,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Run sends the reminders and returns how many were delivered
func (j *HoldReminderJob) Run() int {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := j.now().UTC()
	today := start.Truncate(24 * time.Hour)

	leads, err := j.leads.ListDueHolds(ctx, today, today, holdReminderBatch)
	if err != nil {
		j.logger.Error("failed to list due holds", zap.Error(err))
		return 0
	}

	sent, failed := 0, 0
	for i := range leads {
		lead := &leads[i]
		if err := j.notifier.HoldReminder(ctx, lead); err != nil {
			failed++
			j.logger.Warn("hold reminder failed",
				zap.Int64("lead_id", lead.ID),
				zap.String("vendor_id", lead.VendorID.String()),
				zap.Error(err))
			continue
		}
		if err := j.leads.MarkHoldReminded(ctx, lead.ID, start); err != nil {
			j.logger.Warn("failed to stamp hold reminder", zap.Int64("lead_id", lead.ID), zap.Error(err))
		}
		sent++
	}

	// overdue-hold tiles depend on the date, so a new day refreshes them
	for _, d := range workflow.Departments() {
		if err := j.cache.Invalidate(ctx, workflow.DashboardKey(d)); err != nil {
			j.logger.Warn("cache invalidation failed", zap.String("pattern", workflow.DashboardKey(d)), zap.Error(err))
		}
	}

	if j.counter != nil {
		j.counter.HoldRemindersSent(sent)
	}
	j.logger.Info("hold reminder job completed",
		zap.Int("due", len(leads)),
		zap.Int("sent", sent),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
	return sent
}

// RegisterHoldReminderJob adds the job to the scheduler under cronExpr
func RegisterHoldReminderJob(scheduler *Scheduler, job *HoldReminderJob, cronExpr string) error {
	return scheduler.AddJob(HoldReminderJobName, cronExpr, func() { job.Run() })
}
