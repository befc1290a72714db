package main

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/workfree/search-briefing/internal/briefing"
	"github.com/workfree/search-briefing/internal/config"
	"github.com/workfree/search-briefing/internal/handlers"
	"github.com/workfree/search-briefing/internal/manager"
	mw "github.com/workfree/search-briefing/internal/middleware"
	"github.com/workfree/search-briefing/internal/notify"
)

// newRouter assembles the full HTTP surface. Kept separate from main so
// integration tests can build the router against a mock-backed manager.
func newRouter(cfg config.Config, mgr *manager.Manager, runner *briefing.Runner, notifier notify.Notifier) chi.Router {
	scheduleHandler := &handlers.ScheduleHandler{Manager: mgr}
	searchHandler := &handlers.SearchHandler{Runner: runner}
	healthHandler := &handlers.HealthHandler{Notifier: notifier}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(mw.Recoverer)
	r.Use(mw.RequestLog)
	r.Use(mw.Prometheus)
	r.Use(mw.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(mw.CORS(cfg.CORSAllowedOrigins))

	// Public: banner, liveness, metrics.
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	r.Method("GET", "/metrics", promhttp.Handler())

	limiter := mw.RegisterRateLimiter()

	// Protected: everything that mutates or lists.
	r.Group(func(r chi.Router) {
		r.Use(mw.APIToken(cfg.APIToken, cfg.AuthAllowAnonymous))
		r.Use(mw.MaxBytes(mw.DefaultMaxBodyBytes))

		r.With(limiter.Middleware).Post("/schedule", scheduleHandler.Register)
		r.Get("/schedule/{user_id}", scheduleHandler.Get)
		r.Delete("/schedule/{user_id}", scheduleHandler.Delete)
		r.Post("/schedule/{user_id}/pause", scheduleHandler.Pause)
		r.Post("/schedule/{user_id}/resume", scheduleHandler.Resume)

		r.Post("/api/search", searchHandler.Search)
		r.Post("/api/email", searchHandler.SearchAndEmail)

		// Fleet visibility, operator-only.
		r.Group(func(r chi.Router) {
			r.Use(mw.AdminToken(cfg.AdminToken))
			r.Get("/schedules", scheduleHandler.List)
		})
	})

	return r
}
