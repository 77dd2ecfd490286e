// Package security provides the acting-user model: who is performing an
// operation and what their role permits.
package security

import "context"

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID string
	Name   string
	Role   Role
}

type actorKey struct{}

// WithActor adds the acting user to context.
// Used by middleware to propagate the authenticated user through the request chain.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor retrieves the acting user from context.
// The second return value is false when no actor is set (unauthenticated paths,
// background jobs).
func GetActor(ctx context.Context) (Actor, bool) {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a, true
	}
	return Actor{}, false
}

// SystemActor is used by seed tooling and maintenance jobs. Its ledger entries
// carry an empty user id and a nil transaction id.
func SystemActor() Actor {
	return Actor{UserID: "", Name: "system", Role: RoleAdmin}
}
