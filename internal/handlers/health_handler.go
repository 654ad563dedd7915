package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"amcmath/internal/logger"
)

// Pinger is satisfied by *database.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db      Pinger
	startup *StartupStatus
	log     *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, startup *StartupStatus, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, startup: startup, log: log}
}

// Health reports that the process is up
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports 200 once startup finished and the database answers
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	report := h.startup.Report()
	if !report.Ready {
		w.Header().Set("Retry-After", "2")
		writeJSON(w, http.StatusServiceUnavailable, report)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		respondWithError(w, r, h.log, fmt.Errorf("%w: database unreachable: %v", errNotReady, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
