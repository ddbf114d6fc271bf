package ports

import (
	"context"
	"time"

	"github.com/medora/hospital-system/internal/core/domain"
)

// SessionStore keeps server-side session state keyed by the opaque session id.
type SessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	// Get returns domain.ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*domain.Session, error)
	UpdateCSRF(ctx context.Context, id, token string, issuedAt time.Time) error
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
}
