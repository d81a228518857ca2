package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/codescribe/internal/config"
	"github.com/sevigo/codescribe/internal/queue"
	"github.com/sevigo/codescribe/internal/server/handler"
)

// NewRouter creates and configures a new HTTP router with middleware and the
// webhook route.
func NewRouter(cfg *config.Config, broker queue.Broker, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := broker.Ping(r.Context()); err != nil {
			logger.Error("health check failed, broker unreachable", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("broker unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	webhookHandler := handler.NewWebhookHandler(cfg, broker, logger)
	r.Post("/webhook", webhookHandler.Handle)

	return r
}
