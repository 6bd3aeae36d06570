package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/messaging-api/internal/repository"
)

// HealthHandler reports whether the store is reachable.
type HealthHandler struct {
	store  repository.Pinger
	logger *slog.Logger
}

func NewHealthHandler(store repository.Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

type healthResponse struct {
	OK bool `json:"ok"`
}

// HandleHealth probes the store.
//
// HTTP: GET /health
// RESPONSE: 200 {"ok":true}, or 500 {"ok":false} when the probe fails.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, healthResponse{OK: false})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{OK: true})
}
