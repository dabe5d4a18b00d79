// Package http собирает HTTP-роутер сервиса авторизации.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jayudam/auth-service/internal/transport/http/handlers"
	"github.com/jayudam/auth-service/internal/transport/http/middleware"
)

// Options — настройки роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewRouter собирает chi-роутер с общим набором мидлваров.
// Порядок: RequestID -> Logging -> Recover -> Timeout.
func NewRouter(h *handlers.Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(opts.Logger),
		middleware.Recover(),
		middleware.Timeout(opts.Timeout),
	)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/bbaton", h.BBatonLogin)
		r.Post("/access-token", h.AccessToken)
		r.Delete("/logout", h.Logout)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
