package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jayudam/auth-service/internal/models"
	"github.com/jayudam/auth-service/internal/storage"
)

// SaveUser создает нового пользователя в БД и заполняет user.ID.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(name, nickname, created_at, updated_at, suspended_type, suspended_reason, unsuspend_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := s.db.QueryRow(ctx, query,
		user.Name,
		user.Nickname,
		user.CreatedAt,
		user.UpdatedAt,
		string(user.SuspendedType),
		nullableString(user.SuspendedReason),
		user.UnsuspendAt,
	).Scan(&user.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `
		SELECT id, name, nickname, created_at, updated_at, suspended_type, suspended_reason, unsuspend_at
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByOAuth находит пользователя по внешней oauth-связке (provider + oauth id).
func (s *Storage) UserByOAuth(ctx context.Context, provider, oauthID string) (*models.User, error) {
	const op = "storage.postgres.UserByOAuth"

	query := `
		SELECT u.id, u.name, u.nickname, u.created_at, u.updated_at, u.suspended_type, u.suspended_reason, u.unsuspend_at
		FROM users u
		JOIN oauth o ON o.user_id = u.id
		WHERE o.provider = $1 AND o.id = $2
	`

	user, err := scanUser(s.db.QueryRow(ctx, query, provider, oauthID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// LinkOAuth привязывает oauth-учётку к пользователю.
func (s *Storage) LinkOAuth(ctx context.Context, provider, oauthID string, userID int64) error {
	const op = "storage.postgres.LinkOAuth"

	query := `
		INSERT INTO oauth(id, provider, user_id)
		VALUES ($1, $2, $3)
	`

	_, err := s.db.Exec(ctx, query, oauthID, provider, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// scanUser читает строку users с nullable-полями блокировки.
func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user            models.User
		suspendedType   string
		suspendedReason *string
	)

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Nickname,
		&user.CreatedAt,
		&user.UpdatedAt,
		&suspendedType,
		&suspendedReason,
		&user.UnsuspendAt,
	)
	if err != nil {
		return nil, err
	}

	user.SuspendedType = models.SuspendedType(suspendedType)
	if suspendedReason != nil {
		user.SuspendedReason = *suspendedReason
	}

	return &user, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
