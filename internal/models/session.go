package models

import (
	"time"

	"github.com/google/uuid"
)

// Session - серверная запись одной линии логина (login lineage).
// Идентификатор сессии зашивается claim'ом в оба токена, выпущенных при логине,
// поэтому logout по access-токену закрывает и парный refresh-токен.
type Session struct {
	ID        uuid.UUID
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time // nil — сессия активна; выставляется при logout
}

// Revoked сообщает, была ли сессия отозвана.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}
