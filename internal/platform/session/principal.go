package session

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const principalKey contextKey = "principal"

// Role values fixed at doctor creation time.
const (
	RoleDoctor = "doctor"
	RoleAdmin  = "admin"
)

// Principal is the authenticated doctor identity carried through a request.
// It is built once per request from the session cookie; handlers never touch
// the token directly.
type Principal struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	FullName string    `json:"full_name"`
}

// IsAdmin reports whether the principal has unrestricted visibility.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext retrieves the authenticated principal from the request context.
// The second return value is false when the request is unauthenticated.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
