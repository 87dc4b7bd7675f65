package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aquagraph/aquagraph/internal/api/middleware"
	"github.com/aquagraph/aquagraph/internal/api/models"
	"github.com/aquagraph/aquagraph/internal/api/response"
	"github.com/aquagraph/aquagraph/internal/worker"
)

// HistoryPurger deletes every history entry.
type HistoryPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// AdminConfig holds the dependencies of AdminHandler.
type AdminConfig struct {
	Cache worker.CacheInvalidator

	// Prefetcher is nil when there are no prefetch targets.
	Prefetcher worker.Prefetcher
	History    HistoryPurger
}

// AdminHandler handles the operator endpoints under /v1/admin.
type AdminHandler struct {
	cfg AdminConfig
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	return &AdminHandler{cfg: cfg}
}

// InvalidateCache handles POST /v1/admin/cache/invalidate.
func (h *AdminHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	removed := h.cfg.Cache.InvalidateCache()
	zerolog.Ctx(r.Context()).Info().
		Str("subject", middleware.GetSubject(r.Context())).
		Int("removed", removed).
		Msg("archive cache invalidated")
	response.JSON(w, r, http.StatusOK, models.CacheInvalidateResponse{Removed: removed})
}

// Prefetch handles POST /v1/admin/prefetch. It runs synchronously.
func (h *AdminHandler) Prefetch(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Prefetcher == nil {
		response.ServiceUnavailable(w, r, "prefetch has no targets configured")
		return
	}

	result := h.cfg.Prefetcher.Run(r.Context())
	zerolog.Ctx(r.Context()).Info().
		Str("subject", middleware.GetSubject(r.Context())).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("prefetch triggered")

	response.JSON(w, r, http.StatusOK, models.PrefetchResponse{
		Targets:   result.Targets,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Duration:  result.Duration.Seconds(),
	})
}

// PurgeHistory handles DELETE /v1/admin/history.
func (h *AdminHandler) PurgeHistory(w http.ResponseWriter, r *http.Request) {
	removed, err := h.cfg.History.Purge(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to purge history")
		response.InternalError(w, r, "failed to purge history")
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Str("subject", middleware.GetSubject(r.Context())).
		Int64("removed", removed).
		Msg("history purged")
	response.JSON(w, r, http.StatusOK, models.PurgeResponse{Removed: removed})
}
