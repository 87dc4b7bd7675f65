// Package handler provides HTTP handlers for the AquaGraph page and API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquagraph/aquagraph/internal/api/models"
	"github.com/aquagraph/aquagraph/internal/api/response"
	"github.com/aquagraph/aquagraph/internal/archive"
	"github.com/aquagraph/aquagraph/internal/provider/resilience"
)

// Pinger checks a backing store. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheReporter exposes archive cache statistics.
type CacheReporter interface {
	CacheStats() archive.CacheStats
}

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Len() int
}

// OpsConfig holds the dependencies of OpsHandler.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Database is nil when history is kept in memory.
	Database  Pinger
	Providers *resilience.Registry
	Cache     CacheReporter
	Sessions  SessionCounter
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// Only the database gates readiness; an open breaker degrades but still serves cached data.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.cfg.Database.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness: database ping failed")
			response.ServiceUnavailable(w, r, "database unavailable")
			return
		}
	}

	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	})
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Version:    h.cfg.Version,
		Subsystems: []models.SubsystemStatus{h.databaseStatus(r.Context())},
		Providers:  []models.ProviderStatus{},
	}

	if h.cfg.Providers != nil {
		for _, p := range h.cfg.Providers.All() {
			ps := providerStatus(p)
			status.Providers = append(status.Providers, ps)
			status.Status = worst(status.Status, ps.Status)
		}
	}
	for _, s := range status.Subsystems {
		status.Status = worst(status.Status, s.Status)
	}

	if h.cfg.Cache != nil {
		stats := h.cfg.Cache.CacheStats()
		status.Cache = models.CacheStatus{
			Entries:      stats.Entries,
			FreshEntries: stats.FreshEntries,
			Hits:         stats.Hits,
			Misses:       stats.Misses,
			StaleServed:  stats.StaleServed,
		}
	}
	if h.cfg.Sessions != nil {
		status.Sessions = h.cfg.Sessions.Len()
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) databaseStatus(ctx context.Context) models.SubsystemStatus {
	if h.cfg.Database == nil {
		detail := "history kept in memory"
		return models.SubsystemStatus{Name: "history", Status: models.HealthStatusOK, Detail: &detail}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.cfg.Database.Ping(ctx); err != nil {
		detail := err.Error()
		return models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusFail, Detail: &detail}
	}
	return models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
}

func providerStatus(p resilience.Health) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:      p.Name,
		Status:        models.HealthStatusOK,
		BreakerState:  p.State.String(),
		LastSuccessAt: models.TimestampPtr(p.LastSuccessAt),
		LastFailureAt: models.TimestampPtr(p.LastFailureAt),
	}
	switch {
	case p.Degraded():
		ps.Status = models.HealthStatusDegraded
	case !p.Healthy():
		ps.Status = models.HealthStatusFail
	}
	if p.LastError != "" {
		msg := p.LastError
		ps.Message = &msg
	}
	return ps
}

var healthRank = map[models.HealthStatus]int{
	models.HealthStatusOK:       0,
	models.HealthStatusDegraded: 1,
	models.HealthStatusFail:     2,
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	if healthRank[b] > healthRank[a] {
		return b
	}
	return a
}
