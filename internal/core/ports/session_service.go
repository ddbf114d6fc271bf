package ports

import (
	"context"

	"github.com/medora/hospital-system/internal/core/domain"
)

// SessionService authenticates users and manages their sessions.
type SessionService interface {
	Authenticate(ctx context.Context, username, password string) (domain.Identity, error)
	Open(ctx context.Context, identity domain.Identity, priorSessionID string) (*domain.Session, error)
	Close(ctx context.Context, sessionID string) error
	Current(ctx context.Context, sessionID string) (*domain.Session, error)
	CSRFToken(s *domain.Session) string
	ValidateCSRF(ctx context.Context, s *domain.Session, presented string) bool
}

// AccessPolicy decides whether a request may proceed. A nil error allows it;
// otherwise the error is one of domain.ErrUnauthenticated, domain.ErrForbidden
// or domain.ErrInvalidCSRF.
type AccessPolicy interface {
	Authorize(ctx context.Context, s *domain.Session, method string, allowed domain.RoleSet, csrfToken string) error
}
