package identity

import (
	"context"

	"github.com/inventa/inventory-api/internal/domain"
)

type userCtxKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *domain.User {
	if user, ok := ctx.Value(userCtxKey{}).(*domain.User); ok {
		return user
	}
	return nil
}

// RequireUser returns the authenticated user or ErrUnauthorized.
func RequireUser(ctx context.Context) (*domain.User, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}
