package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"dwellwatch/internal/config"
	"dwellwatch/internal/handler"
	"dwellwatch/internal/logger"
	"dwellwatch/internal/middleware"
	"dwellwatch/internal/repository"
)

// Services are the backends the HTTP surface exposes.
type Services struct {
	Sessions handler.SessionService
	Audit    repository.AuditRepository
	Evidence handler.EvidenceReader
	Hub      handler.LiveHub
	// Metrics serves the Prometheus exposition, optional.
	Metrics http.Handler
}

// SetupRoutes registers API, log and auth endpoints behind the
// authentication middleware.
func SetupRoutes(cfg *config.Config, logger *logger.Logger, services Services) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Auth(cfg.Password))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if services.Metrics != nil {
		r.Handle("/metrics", services.Metrics)
	}

	// Auth endpoints
	r.Get("/login", handler.LoginPageHandler)
	r.Post("/auth/login", handler.LoginHandler(cfg, logger))
	r.Post("/auth/logout", handler.LogoutHandler)

	r.Route("/api", func(r chi.Router) {
		// the websocket lives for the whole session, so it stays outside the timeout
		r.Get("/live", handler.LiveWebsocketHandler(services.Hub, logger))

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(30 * time.Second))
			r.Get("/sessions", handler.ListSessionsHandler(services.Sessions, logger))
			r.Get("/sessions/{id}", handler.GetSessionHandler(services.Sessions, logger))
			r.Delete("/sessions/{id}", handler.CancelSessionHandler(services.Sessions, logger))
			r.Get("/violations", handler.GetViolationsHandler(services.Audit, logger))
			r.Get("/evidence/{ref}", handler.ViewEvidenceHandler(services.Evidence, logger))
		})

		// uploads may take longer than the API timeout
		r.Post("/sessions", handler.CreateSessionHandler(services.Sessions, cfg, logger))
	})

	// Log endpoints
	r.Get("/logs/{level}", handler.ShowLogsHandler(logger))
	r.Post("/logs/{level}/clear", handler.ClearLogsHandler(logger))

	return r
}
