package httpserver

import (
	"net/http"

	"chatrelay/internal/middleware"
	"chatrelay/internal/observability"

	"log/slog"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	Logger          *slog.Logger
	Metrics         *observability.Metrics
	MetricsHandler  http.Handler
	TelegramHandler http.Handler
}

// NewRouter собирает chi-роутер с общими middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.Logging(deps.Logger, deps.Metrics))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// Любой метод: не-POST запросы вебхук подтверждает сам.
	r.Handle("/telegram/webhook", deps.TelegramHandler)

	return r
}
