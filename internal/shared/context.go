package shared

import "context"

type actorContextKey struct{}

// ActorHeader carries the operator name supplied by the front-end.
const ActorHeader = "X-Actor"

// ContextWithActor stores the acting operator in context.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the acting operator, defaulting to "system".
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorContextKey{}).(string)
	if actor == "" {
		return "system"
	}
	return actor
}
