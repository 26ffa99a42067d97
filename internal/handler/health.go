package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/social-feed/internal/repository"
)

type HealthHandler struct {
	stats  repository.StatsRepository
	logger *slog.Logger
}

func NewHealthHandler(stats repository.StatsRepository, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{stats: stats, logger: logger}
}

type healthResponse struct {
	Status string `json:"status"`
	Posts  int    `json:"posts"`
	Users  int    `json:"users"`
}

// HandleHealth handles GET /healthz. Counting both collections doubles as a
// storage probe.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.logger.Error("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Posts:  stats.Posts,
		Users:  stats.Users,
	})
}
