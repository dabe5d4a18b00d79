package models

import (
	"time"
)

// TokenClass — класс выпускаемого токена.
// Класс определяет секрет подписи и время жизни; формат claims общий.
type TokenClass int

const (
	// TokenAccess — короткоживущий токен для вызовов API.
	TokenAccess TokenClass = iota
	// TokenRefresh — долгоживущий токен только для обновления access-токена.
	TokenRefresh
)

// String возвращает имя класса для логов.
func (c TokenClass) String() string {
	switch c {
	case TokenAccess:
		return "access"
	case TokenRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// TokenPair - пара токенов, выпускаемая при логине.
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}
