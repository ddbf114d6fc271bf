package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
)

// DemoUser is an account created by SeedDemoUsers.
type DemoUser struct {
	Username string
	Password string
	Role     domain.Role
	FullName string
}

// DemoUsers are the accounts seeded for local runs and tests.
var DemoUsers = []DemoUser{
	{Username: "admin", Password: "admin123", Role: domain.RoleAdmin, FullName: "System Admin"},
	{Username: "drsmith", Password: "doctor123", Role: domain.RoleDoctor, FullName: "Dr. John Smith"},
	{Username: "reception", Password: "staff123", Role: domain.RoleStaff, FullName: "Front Desk Staff"},
	{Username: "pharma", Password: "pharma123", Role: domain.RolePharmacy, FullName: "Pharmacy Staff"},
	{Username: "alice", Password: "patient123", Role: domain.RolePatient, FullName: "Alice Patient"},
}

// UserService manages accounts.
type UserService struct {
	repo ports.UserRepository
	log  zerolog.Logger
	cost int
}

func NewUserService(repo ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, log: log, cost: bcrypt.DefaultCost}
}

// Create hashes the password and stores a new account. The role is fixed
// from here on.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, domain.InvalidInput("username and password are required")
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, domain.InvalidInput("role must be one of Admin, Doctor, Staff, Pharmacy, Patient")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, domain.InvalidInput("password must be at most 72 bytes")
	}
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		FullName:     in.FullName,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", role.String()).Msg("user created")
	return created, nil
}

// Delete removes a user and cascades to what they own.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// SeedDemoUsers creates the demo accounts that do not exist yet and returns
// how many were added.
func (s *UserService) SeedDemoUsers(ctx context.Context) (int, error) {
	added := 0
	for _, du := range DemoUsers {
		_, err := s.Create(ctx, ports.CreateUserInput{
			Username: du.Username,
			Password: du.Password,
			Role:     string(du.Role),
			FullName: du.FullName,
		})
		if errors.Is(err, domain.ErrUserExists) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
