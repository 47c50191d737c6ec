// Package authctx carries the authenticated identity through a request
// context.
package authctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey struct{}

// Identity is the authenticated requester as resolved by the session
// middleware.
type Identity struct {
	AccountID snowflake.ID
	Email     string
	Staff     bool
	Superuser bool
	Root      bool
}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext returns the identity stored in the context, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
