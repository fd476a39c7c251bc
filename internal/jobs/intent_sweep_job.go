package jobs

import (
	"time"

	"go.uber.org/zap"
)

// IntentSweepJobName is the name of the abandoned-intent sweep
const IntentSweepJobName = "intent_sweep"

// IntentSweeper drops transition intents whose confirmation window closed
type IntentSweeper interface {
	Sweep(now time.Time) int
}

// SweepCounter records swept intents. metrics.Metrics satisfies it.
type SweepCounter interface {
	IntentsSwept(n int)
}

// RegisterIntentSweepJob schedules the sweep. counter may be nil.
func RegisterIntentSweepJob(scheduler *Scheduler, sweeper IntentSweeper, counter SweepCounter, logger *zap.Logger, cronExpr string) error {
	return scheduler.AddJob(IntentSweepJobName, cronExpr, func() {
		n := sweeper.Sweep(time.Now())
		if counter != nil {
			counter.IntentsSwept(n)
		}
		if n > 0 {
			logger.Info("expired transition intents swept", zap.Int("removed", n))
		}
	})
}
