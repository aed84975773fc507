// Package http provides the identity middleware that resolves the caller of a request
// and the per-actor rate limiter.
package http

import (
	"context"

	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
)

// actorKey is a context key type for storing the resolved actor.
type actorKey struct{}

// WithActor stores the resolved actor in the context.
func WithActor(ctx context.Context, actor *authDomain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor retrieves the actor from the context.
// Returns (actor, true) if present, or (nil, false) if no actor was set.
func GetActor(ctx context.Context) (*authDomain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(*authDomain.Actor)
	return actor, ok && actor != nil
}
