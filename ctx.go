package access

import (
	"context"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}
var subjectCtxKey = &contextKey{"subject"}

type contextKey struct {
	name string
}

// DefaultUserLocalsKey is the router locals key the auth middleware uses to
// store the resolved user.
const DefaultUserLocalsKey = "user"

// WithContext sets the resolved User in the given context.
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithSubjectContext sets the validated token subject (a provider DID) in
// the given context.
func WithSubjectContext(r context.Context, subject string) context.Context {
	return context.WithValue(r, subjectCtxKey, subject)
}

// SubjectFromContext finds the validated token subject from the context.
func SubjectFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(subjectCtxKey).(string)
	return raw, ok && raw != ""
}

// UserFromRouter extracts the resolved user from the router context.
func UserFromRouter(ctx router.Context, key string) (*User, bool) {
	if key == "" {
		key = DefaultUserLocalsKey
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	user, ok := raw.(*User)
	return user, ok
}

// CanAccessApp checks app visibility for the user stored in the standard
// context. Missing or anonymous contexts see nothing.
func CanAccessApp(ctx context.Context, catalog *Catalog, appID string) bool {
	user, ok := FromContext(ctx)
	if !ok || user == nil {
		return false
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return catalog.AppRole(appID, user.Roles) != AppRoleNone
}

// CanAccessAppFromRouter checks app visibility for the user stored in the
// router context.
func CanAccessAppFromRouter(ctx router.Context, catalog *Catalog, appID string) bool {
	user, ok := UserFromRouter(ctx, "")
	if !ok || user == nil {
		return false
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return catalog.AppRole(appID, user.Roles) != AppRoleNone
}
