package auth

import (
	"context"

	"github.com/sakif/classroom/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of type contextKey, so only this package
// can read or write the identity stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller of one request.
//
// RequireAuth fills UserID and Username from the token. Role and
// TeacherUserID are only present after LoadRole has read the directory.
type Identity struct {
	UserID        int64
	Username      string
	Role          model.Role
	TeacherUserID *int64
}

// HasRole reports whether the directory-backed fields have been loaded.
func (id Identity) HasRole() bool {
	return id.Role != ""
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the authenticated caller from the request context.
//
// Returns (Identity{}, false) if the request did not pass through RequireAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID > 0
}
