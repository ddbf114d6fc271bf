package service

import (
	"context"
	"net/http"

	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
)

// AccessPolicy gatekeeps requests: authentication first, then role, then CSRF
// for mutating methods. The order keeps role-gated detail away from
// unauthenticated callers and spares read-only requests the CSRF check.
type AccessPolicy struct {
	sessions ports.SessionService
}

func NewAccessPolicy(sessions ports.SessionService) *AccessPolicy {
	return &AccessPolicy{sessions: sessions}
}

// Authorize returns nil when the request may proceed.
func (p *AccessPolicy) Authorize(ctx context.Context, sess *domain.Session, method string, allowed domain.RoleSet, csrfToken string) error {
	if sess == nil || !sess.Identity.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !allowed.Permits(sess.Identity.Role) {
		return domain.ErrForbidden
	}
	if IsMutating(method) && !p.sessions.ValidateCSRF(ctx, sess, csrfToken) {
		return domain.ErrInvalidCSRF
	}
	return nil
}

// IsMutating reports whether method changes server state.
func IsMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
