package ports

import (
	"context"

	"github.com/medora/hospital-system/internal/core/domain"
)

// CreateUserInput carries a new account.
type CreateUserInput struct {
	Username string
	Password string
	Role     string
	FullName string
}

type UserService interface {
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
