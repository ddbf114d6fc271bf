package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/medora/hospital-system/internal/core/domain"
)

func newTestSessionService(t *testing.T) (*SessionService, *stubUserRepo, *stubSessionStore) {
	t.Helper()
	users := newStubUserRepo()
	store := newStubSessionStore()
	hash, err := bcrypt.GenerateFromPassword([]byte("doctor123"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = users.Create(context.Background(), &domain.User{
		Username:     "drsmith",
		PasswordHash: string(hash),
		Role:         domain.RoleDoctor,
		FullName:     "Dr. John Smith",
	})
	require.NoError(t, err)
	return NewSessionService(users, store, DefaultCSRFMaxAge, zerolog.Nop()), users, store
}

func TestSessionService_Authenticate(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	ctx := context.Background()

	identity, err := svc.Authenticate(ctx, "drsmith", "doctor123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDoctor, identity.Role)
	assert.NotEmpty(t, identity.UserID)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "drsmith", "nope"},
		{"unknown user", "ghost", "doctor123"},
		{"case mismatch", "DrSmith", "doctor123"},
		{"empty username", "", "doctor123"},
		{"empty password", "drsmith", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		})
	}
}

func TestSessionService_OpenReplacesPriorSession(t *testing.T) {
	svc, _, store := newTestSessionService(t)
	ctx := context.Background()
	identity := domain.Identity{UserID: "u1", Role: domain.RoleDoctor}

	first, err := svc.Open(ctx, identity, "")
	require.NoError(t, err)
	assert.Len(t, first.ID, 64)
	assert.Len(t, first.CSRFToken, 64)

	second, err := svc.Open(ctx, identity, first.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.CSRFToken, second.CSRFToken)

	_, err = store.Get(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = svc.Current(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	current, err := svc.Current(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, identity, current.Identity)
}

func TestSessionService_OpenRejectsPartialIdentity(t *testing.T) {
	svc, _, _ := newTestSessionService(t)

	_, err := svc.Open(context.Background(), domain.Identity{UserID: "u1"}, "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestSessionService_CurrentRejectsPartialSession(t *testing.T) {
	svc, _, store := newTestSessionService(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &domain.Session{ID: "half", Identity: domain.Identity{UserID: "u1"}}))

	_, err := svc.Current(ctx, "half")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Current(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestSessionService_CloseIsIdempotent(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	ctx := context.Background()

	sess, err := svc.Open(ctx, domain.Identity{UserID: "u1", Role: domain.RoleAdmin}, "")
	require.NoError(t, err)

	require.NoError(t, svc.Close(ctx, sess.ID))
	require.NoError(t, svc.Close(ctx, sess.ID))
	require.NoError(t, svc.Close(ctx, ""))

	_, err = svc.Current(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestSessionService_ValidateCSRF(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	ctx := context.Background()

	sess, err := svc.Open(ctx, domain.Identity{UserID: "u1", Role: domain.RoleStaff}, "")
	require.NoError(t, err)

	assert.True(t, svc.ValidateCSRF(ctx, sess, sess.CSRFToken))
	assert.False(t, svc.ValidateCSRF(ctx, sess, ""))
	assert.False(t, svc.ValidateCSRF(ctx, sess, "deadbeef"))
	assert.False(t, svc.ValidateCSRF(ctx, sess, sess.CSRFToken[:63]))
	assert.False(t, svc.ValidateCSRF(ctx, nil, sess.CSRFToken))
	assert.False(t, svc.ValidateCSRF(ctx, &domain.Session{}, ""))
}

func TestSessionService_StaleCSRFRotates(t *testing.T) {
	svc, _, store := newTestSessionService(t)
	ctx := context.Background()

	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	sess, err := svc.Open(ctx, domain.Identity{UserID: "u1", Role: domain.RoleStaff}, "")
	require.NoError(t, err)
	old := sess.CSRFToken

	// Exactly at the limit the token is still fresh.
	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	assert.True(t, svc.ValidateCSRF(ctx, sess, old))

	later := issued.Add(2*time.Hour + time.Second)
	svc.now = func() time.Time { return later }
	assert.False(t, svc.ValidateCSRF(ctx, sess, old))
	assert.NotEqual(t, old, sess.CSRFToken)
	assert.Equal(t, later, sess.CSRFIssuedAt)

	stored, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.CSRFToken, stored.CSRFToken)

	assert.True(t, svc.ValidateCSRF(ctx, sess, sess.CSRFToken))
	assert.False(t, svc.ValidateCSRF(ctx, sess, old))
}

func TestSessionService_StaleCSRFRotationFailureStillRejects(t *testing.T) {
	svc, _, store := newTestSessionService(t)
	ctx := context.Background()

	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	sess, err := svc.Open(ctx, domain.Identity{UserID: "u1", Role: domain.RoleStaff}, "")
	require.NoError(t, err)
	old := sess.CSRFToken

	store.updateErr = errors.New("redis down")
	svc.now = func() time.Time { return issued.Add(3 * time.Hour) }
	assert.False(t, svc.ValidateCSRF(ctx, sess, old))
	assert.Equal(t, old, sess.CSRFToken)
}

func TestSessionService_TokenGenerationFailure(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	svc.random = bytes.NewReader(nil)

	_, err := svc.Open(context.Background(), domain.Identity{UserID: "u1", Role: domain.RoleAdmin}, "")
	require.Error(t, err)
}

func TestSessionService_DummyHashIsBuiltOnce(t *testing.T) {
	first := dummyHash()
	cost, err := bcrypt.Cost(first)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
	assert.Same(t, &first[0], &dummyHash()[0])
}
