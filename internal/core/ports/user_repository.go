package ports

import (
	"context"

	"github.com/medora/hospital-system/internal/core/domain"
)

// UserRepository defines persistence for user accounts.
type UserRepository interface {
	// Create inserts a user. A taken username yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByUsername is an exact, case-sensitive lookup.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Delete removes the user and cascades to the records it owns.
	Delete(ctx context.Context, id string) error
}
