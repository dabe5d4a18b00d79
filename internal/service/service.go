// service содержит бизнес-логику auth-сервиса:
// логин через BBaton, выпуск/проверку токенов, logout
// и работу с хранилищем через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются и далее маппятся
//     транспортом на HTTP-статусы (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/jayudam/auth-service/internal/cache"
	"github.com/jayudam/auth-service/internal/config"
	"github.com/jayudam/auth-service/internal/storage"
)

var (
	// ErrInvalidToken — токен некорректен по формату/подписи или выпущен
	// другим классом (access вместо refresh и наоборот). Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. Транспорт: HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidPayload — токен подписан корректно, но claims неполны или
	// некорректны (нет sub, sub не положительное число, нет sid).
	// Транспорт: HTTP 422.
	ErrInvalidPayload = errors.New("invalid token payload")

	// ErrSessionRevoked — сессия отозвана (logout) и недействительна
	// независимо от срока токена. Транспорт: HTTP 403.
	ErrSessionRevoked = errors.New("session revoked")

	// ErrSessionNotFound — сессия с таким id отсутствует в хранилище.
	// Транспорт: HTTP 403.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUserNotFound — пользователь из sub не существует. Транспорт: HTTP 403.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserSuspended — на пользователе действует блокировка
	// (suspended_type != NONE и now < unsuspend_at). Транспорт: HTTP 403.
	ErrUserSuspended = errors.New("user suspended")

	// ErrOAuthExchange — обмен кода у BBaton не удался (код невалиден или
	// провайдер ответил ошибкой). Транспорт: HTTP 401.
	ErrOAuthExchange = errors.New("oauth code exchange failed")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	bbaton  *BBatonClient
	scache  cache.SessionCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig, bbaton *BBatonClient) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
		bbaton:  bbaton,
	}
}

// SetSessionCache устанавливает кэш сессий (опционально).
func (s *Service) SetSessionCache(c cache.SessionCache) {
	s.scache = c
}
