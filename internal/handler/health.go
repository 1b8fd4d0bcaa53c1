package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/user-service/internal/model"
)

// StatsSource reports population statistics.
type StatsSource interface {
	Stats(ctx context.Context) (*model.Stats, error)
}

// HealthHandler serves the operational endpoints.
type HealthHandler struct {
	stats  StatsSource
	logger *slog.Logger
	now    func() time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(stats StatsSource, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{stats: stats, logger: logger, now: time.Now}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleHealth is a liveness probe. It does not touch the store.
//
// HTTP: GET /health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
	})
}

// HandleStats returns the total user count and the gender distribution.
//
// HTTP: GET /stats
func (h *HealthHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute stats", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
