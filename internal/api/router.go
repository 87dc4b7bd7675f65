// Package api provides the HTTP API for AquaGraph.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/aquagraph/aquagraph/internal/api/handler"
	"github.com/aquagraph/aquagraph/internal/api/middleware"
)

// RateLimits holds per-minute request limits per endpoint category.
// Zero values fall back to the middleware defaults.
type RateLimits struct {
	Standard int
	Submit   int
	Admin    int
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool
	RateLimits  RateLimits

	// TokenValidator guards /v1/ops/status and /v1/admin.
	TokenValidator middleware.TokenValidator

	Page       *handler.PageHandler
	Geo        *handler.GeoHandler
	Submission *handler.SubmissionHandler
	History    *handler.HistoryHandler
	Ops        *handler.OpsHandler
	Admin      *handler.AdminHandler
}

// NewRouter creates a new chi router with the page and API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "aquagraph"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))

	standardRateLimit := middleware.RateLimitByIP(limit(cfg.RateLimits.Standard, middleware.StandardRateLimit))
	submitRateLimit := middleware.RateLimitByIP(limit(cfg.RateLimits.Submit, middleware.SubmitRateLimit))
	adminRateLimit := middleware.RateLimitBySubject(limit(cfg.RateLimits.Admin, middleware.AdminRateLimit))
	requireAdmin := middleware.RequireAdmin(cfg.TokenValidator)

	// Server-rendered page
	r.Group(func(r chi.Router) {
		r.Use(middleware.PageSecurityHeaders)
		r.Use(standardRateLimit)

		r.Get("/", cfg.Page.Show)
		r.With(submitRateLimit).Post("/", cfg.Page.Act)
		r.Get("/chart.png", cfg.Page.ChartPNG)
		r.Handle("/static/*", handler.Static())
	})

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.ContentTypeJSON)

		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", cfg.Ops.HealthCheck)
			r.Get("/ready", cfg.Ops.ReadinessCheck)
			r.With(requireAdmin).Get("/status", cfg.Ops.SystemStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)

			r.Route("/regions", func(r chi.Router) {
				r.Get("/", cfg.Geo.ListRegions)
				r.Get("/{code}/cities", cfg.Geo.ListCities)
				r.Get("/{code}/cities/{name}", cfg.Geo.GetCity)
			})

			r.With(middleware.RequireJSON).Post("/forms:validate", cfg.Submission.Validate)
			r.With(middleware.RequireJSON, submitRateLimit).Post("/submissions", cfg.Submission.Submit)

			r.Get("/history", cfg.History.ListHistory)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Use(adminRateLimit)

			r.Post("/cache/invalidate", cfg.Admin.InvalidateCache)
			r.Post("/prefetch", cfg.Admin.Prefetch)
			r.Delete("/history", cfg.Admin.PurgeHistory)
		})
	})

	return r
}

func limit(perMinute int, fallback middleware.RateLimitConfig) middleware.RateLimitConfig {
	if perMinute <= 0 {
		return fallback
	}
	return middleware.PerMinute(perMinute)
}
