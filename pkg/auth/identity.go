package auth

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated caller of a request. The zero value is
// an anonymous identity. It is threaded explicitly through permission
// and handler calls rather than read from ambient state.
type Identity struct {
	UserID    uuid.UUID
	Username  string
	Role      Role
	Superuser bool
}

// Anonymous returns the unauthenticated identity.
func Anonymous() Identity {
	return Identity{}
}

// IsAuthenticated reports whether the identity belongs to a known user.
func (i Identity) IsAuthenticated() bool {
	return i.UserID != uuid.Nil
}

// IsAdmin reports whether the identity has administrator privileges.
// The superuser flag grants admin regardless of role.
func (i Identity) IsAdmin() bool {
	return i.IsAuthenticated() && (i.Superuser || i.Role == RoleAdmin)
}

// IsModerator reports whether the identity has the moderator role.
func (i Identity) IsModerator() bool {
	return i.IsAuthenticated() && i.Role == RoleModerator
}

type contextKey string

const identityContextKey contextKey = "identity"

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext extracts the identity from a context, returning
// the anonymous identity when none is present.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityContextKey).(Identity); ok {
		return id
	}
	return Anonymous()
}
