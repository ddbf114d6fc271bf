package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
	"github.com/medora/hospital-system/internal/pkg/metrics"
)

// SessionContextKey is the echo context key holding the *domain.Session of an
// admitted request.
const SessionContextKey = "hms.session"

// Rule is the access rule of one route. Public routes skip every check. An
// empty Roles set admits any authenticated role.
type Rule struct {
	Public bool
	Roles  domain.RoleSet
}

// Policies maps "METHOD /route/:param" to its rule.
type Policies map[string]Rule

// Key builds the Policies key of a route.
func Key(method, path string) string {
	return method + " " + path
}

// GateConfig names the session cookie and the CSRF header.
type GateConfig struct {
	CookieName string
	CSRFHeader string
}

// Gatekeeper admits a request only if its route has a rule and the rule is
// satisfied. Routes without a rule answer 404.
func Gatekeeper(sessions ports.SessionService, policy ports.AccessPolicy, rules Policies, cfg GateConfig, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rule, ok := rules[Key(req.Method, c.Path())]
			if !ok {
				if !strings.HasSuffix(c.Path(), "/*") {
					metrics.AccessDeniedTotal.WithLabelValues("no_policy").Inc()
					log.Warn().Str("method", req.Method).Str("route", c.Path()).Msg("route has no access rule")
				}
				return echo.ErrNotFound
			}
			if rule.Public {
				return next(c)
			}

			ctx := req.Context()
			var sess *domain.Session
			if ck, err := c.Cookie(cfg.CookieName); err == nil && ck.Value != "" {
				sess, err = sessions.Current(ctx, ck.Value)
				if err != nil && !errors.Is(err, domain.ErrUnauthenticated) {
					return err
				}
			}

			if err := policy.Authorize(ctx, sess, req.Method, rule.Roles, req.Header.Get(cfg.CSRFHeader)); err != nil {
				metrics.AccessDeniedTotal.WithLabelValues(denyReason(err)).Inc()
				ev := log.Debug().Str("method", req.Method).Str("route", c.Path()).Str("reason", denyReason(err))
				if sess != nil {
					ev = ev.Str("user_id", sess.Identity.UserID).Str("role", sess.Identity.Role.String())
				}
				ev.Msg("access denied")
				return err
			}

			c.Set(SessionContextKey, sess)
			return next(c)
		}
	}
}

// SessionFrom returns the session the gatekeeper attached, or nil.
func SessionFrom(c echo.Context) *domain.Session {
	sess, _ := c.Get(SessionContextKey).(*domain.Session)
	return sess
}

func denyReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrInvalidCSRF):
		return "csrf"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	}
	return "other"
}
