package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medora/hospital-system/internal/core/domain"
)

// DefaultIdleTTL is how long an untouched session survives.
const DefaultIdleTTL = 12 * time.Hour

const (
	fieldUserID       = "user_id"
	fieldRole         = "role"
	fieldCSRFToken    = "csrf_token"
	fieldCSRFIssuedAt = "csrf_issued_at"
)

// SessionStore keeps sessions as Redis hashes.
// Key format: session:<id>
// Every read slides the expiry forward by the idle TTL.
type SessionStore struct {
	client  *redis.Client
	idleTTL time.Duration
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client, idleTTL time.Duration) *SessionStore {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &SessionStore{client: client, idleTTL: idleTTL}
}

func (s *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	key := s.key(sess.ID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldUserID, sess.Identity.UserID,
			fieldRole, string(sess.Identity.Role),
			fieldCSRFToken, sess.CSRFToken,
			fieldCSRFIssuedAt, sess.CSRFIssuedAt.UTC().Format(time.RFC3339Nano),
		)
		pipe.Expire(ctx, key, s.idleTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session create: %w", err)
	}
	return nil
}

// Get loads a session. Hashes missing the user id or carrying an unknown role
// come back with an empty identity so callers treat them as unauthenticated.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	key := s.key(id)
	var fields *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, key)
		pipe.Expire(ctx, key, s.idleTTL)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session get: %w", err)
	}

	values := fields.Val()
	if len(values) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	sess := &domain.Session{ID: id, CSRFToken: values[fieldCSRFToken]}
	if role, err := domain.ParseRole(values[fieldRole]); err == nil && values[fieldUserID] != "" {
		sess.Identity = domain.Identity{UserID: values[fieldUserID], Role: role}
	}
	if ts, err := time.Parse(time.RFC3339Nano, values[fieldCSRFIssuedAt]); err == nil {
		sess.CSRFIssuedAt = ts
	}
	return sess, nil
}

// UpdateCSRF replaces the CSRF token of an existing session.
func (s *SessionStore) UpdateCSRF(ctx context.Context, id, token string, issuedAt time.Time) error {
	key := s.key(id)
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("session update csrf: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return s.client.HSet(ctx, key,
		fieldCSRFToken, token,
		fieldCSRFIssuedAt, issuedAt.UTC().Format(time.RFC3339Nano),
	).Err()
}

// Delete removes the session. Deleting a missing key is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

func (s *SessionStore) key(id string) string {
	return "session:" + id
}
