package auth

import (
	"context"

	"haat/internal/models"
)

type ctxKey string

const (
	identityKey ctxKey = "identity"
)

// Identity is the verified caller of a request. Its fields are unexported so
// only this package, after verifying a token, can construct one.
type Identity struct {
	userID string
	role   models.Role
}

func (i Identity) UserID() string    { return i.userID }
func (i Identity) Role() models.Role { return i.role }
func (i Identity) IsZero() bool      { return i.userID == "" }

func (i Identity) HasRole(roles ...models.Role) bool {
	for _, r := range roles {
		if r == i.role {
			return true
		}
	}
	return false
}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the caller attached by the middleware, or the zero
// Identity on unauthenticated routes.
func FromContext(ctx context.Context) Identity {
	if v, ok := ctx.Value(identityKey).(Identity); ok {
		return v
	}
	return Identity{}
}

func Subject(ctx context.Context) string {
	return FromContext(ctx).UserID()
}
