package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
)

type contextKey string

const actorContextKey contextKey = "actorContext"

// ServiceUserID identifies requests authenticated with the API key
var ServiceUserID = uuid.MustParse("00000000-0000-0000-0000-000000000000")

// WithActor adds the authenticated actor to the context
func WithActor(ctx context.Context, actor workflow.ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// FromContext extracts the actor from the context
func FromContext(ctx context.Context) (workflow.ActorContext, bool) {
	actor, ok := ctx.Value(actorContextKey).(workflow.ActorContext)
	return actor, ok
}

// MustFromContext extracts the actor or panics
func MustFromContext(ctx context.Context) workflow.ActorContext {
	actor, ok := FromContext(ctx)
	if !ok {
		panic("actor not found in context")
	}
	return actor
}

// IsService reports whether the actor is the API key identity
func IsService(actor workflow.ActorContext) bool {
	return actor.UserID == ServiceUserID
}
