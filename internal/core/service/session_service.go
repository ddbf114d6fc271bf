package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/medora/hospital-system/internal/core/domain"
	"github.com/medora/hospital-system/internal/core/ports"
)

const (
	// DefaultCSRFMaxAge is how long a CSRF token stays valid after issue.
	DefaultCSRFMaxAge = 2 * time.Hour

	tokenBytes = 32
)

// dummyHash is compared against when a username is unknown so that both
// failure paths of Authenticate cost one bcrypt comparison. It is built on
// first use.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("hms-unknown-user"), bcrypt.DefaultCost)
	return h
})

// SessionService authenticates credentials and manages server-side sessions.
type SessionService struct {
	users      ports.UserRepository
	store      ports.SessionStore
	csrfMaxAge time.Duration
	log        zerolog.Logger

	now    func() time.Time
	random io.Reader
}

func NewSessionService(users ports.UserRepository, store ports.SessionStore, csrfMaxAge time.Duration, log zerolog.Logger) *SessionService {
	if csrfMaxAge <= 0 {
		csrfMaxAge = DefaultCSRFMaxAge
	}
	return &SessionService{
		users:      users,
		store:      store,
		csrfMaxAge: csrfMaxAge,
		log:        log,
		now:        time.Now,
		random:     rand.Reader,
	}
}

// Authenticate verifies username and password. Every failure caused by the
// credentials themselves is reported as domain.ErrInvalidCredentials.
func (s *SessionService) Authenticate(ctx context.Context, username, password string) (domain.Identity, error) {
	if username == "" || password == "" {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return domain.Identity{}, domain.ErrInvalidCredentials
		}
		return domain.Identity{}, fmt.Errorf("authenticate: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	return user.Identity(), nil
}

// Open binds identity to a brand new session with a fresh CSRF token. The
// prior session, if any, is destroyed so its id and token stop working.
func (s *SessionService) Open(ctx context.Context, identity domain.Identity, priorSessionID string) (*domain.Session, error) {
	if !identity.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if priorSessionID != "" {
		if err := s.store.Delete(ctx, priorSessionID); err != nil {
			return nil, fmt.Errorf("open session: drop prior: %w", err)
		}
	}

	id, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	csrf, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	sess := &domain.Session{
		ID:           id,
		Identity:     identity,
		CSRFToken:    csrf,
		CSRFIssuedAt: s.now().UTC(),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	s.log.Info().Str("user_id", identity.UserID).Str("role", identity.Role.String()).Msg("session opened")
	return sess, nil
}

// Close destroys the session. Closing an unknown or empty id is a no-op.
func (s *SessionService) Close(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// Current loads the session behind sessionID. Sessions missing either the
// user id or the role are treated as unauthenticated.
func (s *SessionService) Current(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, domain.ErrUnauthenticated
	}
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !sess.Identity.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return sess, nil
}

// CSRFToken returns the session's current token without rotating it.
func (s *SessionService) CSRFToken(sess *domain.Session) string {
	if sess == nil {
		return ""
	}
	return sess.CSRFToken
}

// ValidateCSRF checks presented against the session token in constant time.
// A stored token past its freshness window is rotated and the check fails,
// so the client has to fetch the new token before retrying.
func (s *SessionService) ValidateCSRF(ctx context.Context, sess *domain.Session, presented string) bool {
	if sess == nil || sess.CSRFToken == "" {
		return false
	}

	now := s.now().UTC()
	if sess.CSRFExpired(now, s.csrfMaxAge) {
		s.rotateCSRF(ctx, sess, now)
		return false
	}

	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.CSRFToken), []byte(presented)) == 1
}

func (s *SessionService) rotateCSRF(ctx context.Context, sess *domain.Session, now time.Time) {
	token, err := s.newToken()
	if err != nil {
		s.log.Error().Err(err).Msg("csrf rotation: token generation failed")
		return
	}
	if err := s.store.UpdateCSRF(ctx, sess.ID, token, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", sess.Identity.UserID).Msg("csrf rotation not persisted")
		return
	}
	sess.CSRFToken = token
	sess.CSRFIssuedAt = now
	s.log.Debug().Str("user_id", sess.Identity.UserID).Msg("csrf token rotated")
}

// newToken returns 256 bits of randomness, hex encoded.
func (s *SessionService) newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(s.random, b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}
