package identity

import (
	"context"

	"github.com/inventa/inventory-api/internal/domain"
)

// Repository defines the interface for user persistence.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetUserByUsernameOrEmail returns the first user matching either value.
	GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)
}
