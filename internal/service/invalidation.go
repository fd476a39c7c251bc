package service

import (
	"context"

	"github.com/woodcraft-crm/leadflow-api/internal/cache"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
	"go.uber.org/zap"
)

// invalidator applies the workflow invalidation policy for mutations made
// outside the transition orchestrator
type invalidator struct {
	store  cache.Store
	logger *zap.Logger
}

func (i invalidator) fire(ctx context.Context, event workflow.Event, c workflow.EventContext) []string {
	patterns := workflow.KeysToInvalidate(event, c)
	for _, p := range patterns {
		if err := i.store.Invalidate(ctx, p); err != nil {
			i.logger.Warn("cache invalidation failed",
				zap.String("event", string(event)),
				zap.String("pattern", p),
				zap.Error(err))
		}
	}
	return patterns
}
