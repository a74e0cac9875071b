package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ganderhq/gander/internal/jobs"
)

// StatusSource exposes the orchestrator's point-in-time view.
type StatusSource interface {
	Snapshot() jobs.StatusSnapshot
}

// StatusHandler serves the read-only processing snapshot consumed by the CLI
// and the terminal dashboard.
type StatusHandler struct {
	source StatusSource
	logger *slog.Logger
}

func NewStatusHandler(source StatusSource, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{source: source, logger: logger}
}

// Handle writes the snapshot as JSON. The endpoint reports processing
// health only; an individual review failure is visible solely as an absent
// comment.
func (h *StatusHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	snap := h.source.Snapshot()
	if snap.ActiveRuns == nil {
		snap.ActiveRuns = []jobs.ActiveRun{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		h.logger.Error("failed to encode status snapshot", "error", err)
	}
}
