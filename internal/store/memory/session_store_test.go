package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/neyraq/portal/internal/models"
	"github.com/neyraq/portal/internal/store"
)

func newSession(principalID uuid.UUID, expiresAt time.Time) *models.Session {
	now := time.Now()
	return &models.Session{
		SessionID:   uuid.Must(uuid.NewV7()),
		PrincipalID: principalID,
		TenantID:    uuid.Must(uuid.NewV7()),
		CreatedAt:   now,
		LastUsedAt:  now,
		ExpiresAt:   expiresAt,
	}
}

func TestSessionStore_CreateGetDelete(t *testing.T) {
	st := NewSessionStore()
	ctx := context.Background()

	sess := newSession(uuid.Must(uuid.NewV7()), time.Now().Add(time.Hour))
	require.NoError(t, st.Create(ctx, sess))

	got, err := st.Get(ctx, sess.SessionID)
	require.NoError(t, err)
	require.Equal(t, sess.PrincipalID, got.PrincipalID)

	require.NoError(t, st.Delete(ctx, sess.SessionID))

	_, err = st.Get(ctx, sess.SessionID)
	require.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSessionStore_GetExpired(t *testing.T) {
	st := NewSessionStore()
	ctx := context.Background()

	sess := newSession(uuid.Must(uuid.NewV7()), time.Now().Add(-time.Minute))
	require.NoError(t, st.Create(ctx, sess))

	_, err := st.Get(ctx, sess.SessionID)
	require.ErrorIs(t, err, store.ErrSessionExpired)
}

func TestSessionStore_DeleteByPrincipal(t *testing.T) {
	st := NewSessionStore()
	ctx := context.Background()

	principalID := uuid.Must(uuid.NewV7())
	s1 := newSession(principalID, time.Now().Add(time.Hour))
	s2 := newSession(principalID, time.Now().Add(time.Hour))
	other := newSession(uuid.Must(uuid.NewV7()), time.Now().Add(time.Hour))

	require.NoError(t, st.Create(ctx, s1))
	require.NoError(t, st.Create(ctx, s2))
	require.NoError(t, st.Create(ctx, other))

	n, err := st.DeleteByPrincipal(ctx, principalID)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = st.Get(ctx, s1.SessionID)
	require.ErrorIs(t, err, store.ErrSessionNotFound)
	_, err = st.Get(ctx, other.SessionID)
	require.NoError(t, err)
}

func TestSessionStore_DeleteExpired(t *testing.T) {
	st := NewSessionStore()
	ctx := context.Background()

	expired := newSession(uuid.Must(uuid.NewV7()), time.Now().Add(-time.Minute))
	live := newSession(uuid.Must(uuid.NewV7()), time.Now().Add(time.Hour))

	require.NoError(t, st.Create(ctx, expired))
	require.NoError(t, st.Create(ctx, live))

	n, err := st.DeleteExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = st.Get(ctx, expired.SessionID)
	require.ErrorIs(t, err, store.ErrSessionNotFound)
	_, err = st.Get(ctx, live.SessionID)
	require.NoError(t, err)
}

func TestSessionStore_UpdateLastUsed(t *testing.T) {
	st := NewSessionStore()
	ctx := context.Background()

	sess := newSession(uuid.Must(uuid.NewV7()), time.Now().Add(time.Hour))
	sess.LastUsedAt = time.Now().Add(-time.Hour)
	require.NoError(t, st.Create(ctx, sess))

	require.NoError(t, st.UpdateLastUsed(ctx, sess.SessionID))

	got, err := st.Get(ctx, sess.SessionID)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), got.LastUsedAt, time.Minute)
}
