// Package handlers содержит HTTP-обработчики сервиса авторизации.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	logctx "github.com/jayudam/auth-service/internal/pkg/log"
	"github.com/jayudam/auth-service/internal/service"
)

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	auth *service.Service
}

func New(auth *service.Service) *Handlers {
	return &Handlers{auth: auth}
}

// writeJSON сериализует ответ; ошибки маршалинга считаем программной ошибкой.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeText отвечает коротким текстовым телом без перевода строки —
// клиенты сравнивают тело побайтово.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// writeServiceError переводит ошибки сервисного слоя в HTTP-статусы.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrOAuthExchange):
		writeText(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrInvalidPayload):
		writeText(w, http.StatusUnprocessableEntity, "Unprocessable Content")
	case errors.Is(err, service.ErrSessionRevoked),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrUserSuspended):
		writeText(w, http.StatusForbidden, "Forbidden")
	default:
		logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelError,
			"internal error", slog.String("error", err.Error()))
		writeText(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
