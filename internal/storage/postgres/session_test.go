package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jayudam/auth-service/internal/models"
	"github.com/jayudam/auth-service/internal/storage"
)

func applySessionsMigration(t *testing.T, st *Storage) {
	t.Helper()
	_, err := st.db.Exec(context.Background(), readMigration(t, "2_init_sessions.up.sql"))
	require.NoError(t, err, "apply 2_init_sessions.up.sql")
}

// seedUser создаёт пользователя и возвращает его id.
func seedUser(t *testing.T, st *Storage, name string) int64 {
	t.Helper()
	u := newUser(name)
	require.NoError(t, st.SaveUser(context.Background(), u))
	return u.ID
}

func seedSession(t *testing.T, st *Storage, userID int64, ttl time.Duration) *models.Session {
	t.Helper()
	now := time.Now().UTC()
	s := &models.Session{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	require.NoError(t, st.SaveSession(context.Background(), s))
	return s
}

func TestIntegration_SaveSession_And_SessionByID_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "session-owner")

	s := seedSession(t, st, userID, time.Hour)

	got, err := st.SessionByID(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.ID, got.ID)
	require.Equal(t, userID, got.UserID)
	require.False(t, got.Revoked())
	require.WithinDuration(t, s.CreatedAt, got.CreatedAt, 2*time.Second)
	require.WithinDuration(t, s.ExpiresAt, got.ExpiresAt, 2*time.Second)
}

func TestIntegration_SaveSession_DuplicateID(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "dup-owner")

	s := seedSession(t, st, userID, time.Hour)

	err := st.SaveSession(ctx, &models.Session{
		ID:        s.ID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_SessionByID_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	_, err := st.SessionByID(context.Background(), uuid.New())
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_RevokeSession_Flow(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "revoke-owner")

	s := seedSession(t, st, userID, time.Hour)
	at := time.Now().UTC()

	// 1) Активная сессия — отзывается: (true, nil).
	ok, err := st.RevokeSession(ctx, s.ID, at)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := st.SessionByID(ctx, s.ID)
	require.NoError(t, err)
	require.True(t, got.Revoked())
	require.WithinDuration(t, at, *got.RevokedAt, 2*time.Second)

	// 2) Повторный отзыв — идемпотентный no-op: (false, nil),
	// отметка времени первого отзыва не перетирается.
	ok, err = st.RevokeSession(ctx, s.ID, at.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, ok)

	got2, err := st.SessionByID(ctx, s.ID)
	require.NoError(t, err)
	require.WithinDuration(t, *got.RevokedAt, *got2.RevokedAt, time.Millisecond)

	// 3) Несуществующая сессия: (false, ErrNotFound).
	ok, err = st.RevokeSession(ctx, uuid.New(), at)
	require.False(t, ok)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_DeleteExpiredSessions(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	applySessionsMigration(t, st)

	ctx := context.Background()
	userID := seedUser(t, st, "janitor-owner")

	expired := seedSession(t, st, userID, -time.Hour)
	alive := seedSession(t, st, userID, time.Hour)

	require.NoError(t, st.DeleteExpiredSessions(ctx, time.Now().UTC()))

	_, err := st.SessionByID(ctx, expired.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.SessionByID(ctx, alive.ID)
	require.NoError(t, err)
}
