package tenancy

import "context"

const actorKey ctxKey = "clinicops.actor"

// WithActor stores the authenticated staff identity in context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the authenticated staff identity if present.
func ActorFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(actorKey)
	if val == nil {
		return "", false
	}
	actor, ok := val.(string)
	return actor, ok && actor != ""
}
