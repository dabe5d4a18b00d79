package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jayudam/auth-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/сессия/oauth-связка).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (oauth id/сессия).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД и заполняет user.ID.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id int64) (*models.User, error)
	// UserByOAuth находит пользователя по внешней oauth-связке.
	UserByOAuth(ctx context.Context, provider, oauthID string) (*models.User, error)
	// LinkOAuth привязывает внешнюю oauth-учётку к пользователю.
	LinkOAuth(ctx context.Context, provider, oauthID string, userID int64) error
}

// SessionStorage выполняет операции над сессиями логина.
type SessionStorage interface {
	// SaveSession сохраняет новую сессию в БД.
	SaveSession(ctx context.Context, session *models.Session) error
	// SessionByID находит сессию по ID.
	SessionByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	// RevokeSession пытается отозвать сессию, если она ещё не отозвана.
	// Возвращает:
	//
	//	(true, nil)  — сессия была активна и отозвана сейчас;
	//	(false, nil) — сессия существует, но уже была отозвана (идемпотентный no-op);
	//	(false, ErrNotFound) — сессия не найдена.
	RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	// DeleteExpiredSessions удаляет все просроченные сессии.
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	SessionStorage
	Close()
}
