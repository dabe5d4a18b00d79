package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jayudam/auth-service/internal/models"
	"github.com/jayudam/auth-service/internal/storage"
)

// Файл интеграционных тестов для пакета postgres (репозиторий user.go):
// - поднимает реальный PostgreSQL через testcontainers-go (образ postgres:16-alpine);
// - применяет миграции из ./migrations (1_init_users.up.sql);
// - проверяет happy-path (создание, поиск по id и oauth-связке), уникальность oauth-связки;
// - валидирует сценарии отсутствия записей (storage.ErrNotFound).
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// repoRootFromThisFile — определяет корень репозитория относительно текущего файла тестов.
// Используется для поиска SQL-миграций в каталоге ./migrations независимо от текущего рабочего каталога.
func repoRootFromThisFile() string {
	// internal/storage/postgres/... -> подняться на 3 уровня до корня.
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

// readMigration — читает содержимое SQL-миграции из подкаталога ./migrations.
func readMigration(t *testing.T, name string) string {
	t.Helper()
	root := repoRootFromThisFile()
	path := filepath.Join(root, "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres — поднимает временный экземпляр PostgreSQL через testcontainers-go,
// применяет миграцию users и возвращает инициализированное хранилище и функцию очистки.
// Если переменная окружения GO_TEST_INTEGRATION не установлена — тест пропускается.
func startPostgres(t *testing.T) (*Storage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	// применяем миграции.
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, readMigration(t, "1_init_users.up.sql"))
	require.NoError(t, err)

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

func newUser(name string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		Name:          name,
		Nickname:      "",
		CreatedAt:     now,
		UpdatedAt:     now,
		SuspendedType: models.SuspendedNone,
	}
}

func TestIntegration_SaveUser_And_UserByID_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	u := newUser("bb-user-1")
	require.NoError(t, st.SaveUser(ctx, u))
	require.Positive(t, u.ID)

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "bb-user-1", got.Name)
	require.Equal(t, models.SuspendedNone, got.SuspendedType)
	require.Empty(t, got.SuspendedReason)
	require.Nil(t, got.UnsuspendAt)
	require.WithinDuration(t, u.CreatedAt, got.CreatedAt, 2*time.Second)
}

func TestIntegration_SaveUser_SuspensionFieldsRoundTrip(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	until := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Microsecond)

	u := newUser("suspended-user")
	u.SuspendedType = models.SuspendedBlock
	u.SuspendedReason = "abuse"
	u.UnsuspendAt = &until

	require.NoError(t, st.SaveUser(ctx, u))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, models.SuspendedBlock, got.SuspendedType)
	require.Equal(t, "abuse", got.SuspendedReason)
	require.NotNil(t, got.UnsuspendAt)
	require.WithinDuration(t, until, *got.UnsuspendAt, time.Second)
	require.True(t, got.SuspensionActive(time.Now().UTC()))
	require.False(t, got.SuspensionActive(until.Add(time.Minute)))
}

func TestIntegration_UserByID_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.UserByID(context.Background(), 999999)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_LinkOAuth_And_UserByOAuth_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	u := newUser("oauth-user")
	require.NoError(t, st.SaveUser(ctx, u))
	require.NoError(t, st.LinkOAuth(ctx, "bbaton", "bb-42", u.ID))

	got, err := st.UserByOAuth(ctx, "bbaton", "bb-42")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	// Другой провайдер с тем же внешним id — отдельная связка.
	_, err = st.UserByOAuth(ctx, "other", "bb-42")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_LinkOAuth_Duplicate(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()

	first := newUser("first")
	require.NoError(t, st.SaveUser(ctx, first))
	second := newUser("second")
	require.NoError(t, st.SaveUser(ctx, second))

	require.NoError(t, st.LinkOAuth(ctx, "bbaton", "dup-id", first.ID))

	err := st.LinkOAuth(ctx, "bbaton", "dup-id", second.ID)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_UserByOAuth_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.UserByOAuth(context.Background(), "bbaton", "missing")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
