package handler

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aquagraph/aquagraph/internal/api/models"
	"github.com/aquagraph/aquagraph/internal/api/response"
	"github.com/aquagraph/aquagraph/internal/history"
)

const maxHistoryLimit = 500

// HistoryHandler serves the log of successful fetches.
type HistoryHandler struct {
	repo history.Repository
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(repo history.Repository) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

// ListHistory handles GET /v1/history?limit=n.
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			response.Unprocessable(w, r, "invalid query parameter", []models.FieldError{{
				Field:   "limit",
				Message: "must be an integer between 1 and " + strconv.Itoa(maxHistoryLimit),
				Code:    "range",
			}})
			return
		}
		limit = n
	}

	entries, err := h.repo.List(r.Context(), limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list history")
		response.InternalError(w, r, "failed to list history")
		return
	}

	out := models.HistoryList{
		Items: make([]models.HistoryEntry, 0, len(entries)),
		Meta:  models.PagedResponseMeta{Limit: limit, Count: len(entries)},
	}
	for _, e := range entries {
		out.Items = append(out.Items, toHistoryEntry(e))
	}
	response.JSON(w, r, http.StatusOK, out)
}

func toHistoryEntry(e *history.Entry) models.HistoryEntry {
	return models.HistoryEntry{
		ID:        e.ID,
		Region:    e.Region,
		City:      e.City,
		Latitude:  e.Latitude,
		Longitude: e.Longitude,
		StartDate: e.StartDate,
		EndDate:   e.EndDate,
		Days:      e.Days,
		RainTotal: e.RainTotal,
		WindMax:   e.WindMax,
		CreatedAt: models.Timestamp(e.CreatedAt),
	}
}
