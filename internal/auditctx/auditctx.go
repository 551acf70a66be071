// Package auditctx carries the authenticated caller through request contexts so
// services can attribute audit entries without depending on the HTTP layer.
package auditctx

import "context"

// Actor is the caller behind a request.
type Actor struct {
	Subject   string
	IPAddress string
	UserAgent string
	RequestID string
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// FromContext returns the actor stored by WithActor.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
