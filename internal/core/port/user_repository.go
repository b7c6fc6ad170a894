package port

import (
	"context"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/domain"
)

// UserRepository exposes the persistent user store. The session core treats it
// as an external collaborator: it only hydrates profile projections and
// resolves login credentials.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
