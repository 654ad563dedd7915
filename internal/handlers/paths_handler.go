package handlers

import (
	"context"
	"net/http"

	"amcmath/internal/logger"
	"amcmath/internal/progression"
)

// ProgressReader is the part of service.ProgressService the API uses
type ProgressReader interface {
	Progression(ctx context.Context, learnerID string) ([]progression.PathProgress, error)
	PathProgression(ctx context.Context, learnerID, slug string) (*progression.PathProgress, error)
}

// PathsHandler serves the catalog annotated with the caller's progression
type PathsHandler struct {
	progress ProgressReader
	log      *logger.Logger
}

// NewPathsHandler creates a new paths handler
func NewPathsHandler(progress ProgressReader, log *logger.Logger) *PathsHandler {
	return &PathsHandler{progress: progress, log: log}
}

func learnerID(r *http.Request) string {
	if learner := GetLearnerFromContext(r.Context()); learner != nil {
		return learner.ID
	}
	return ""
}

// List returns every path in display order
func (h *PathsHandler) List(w http.ResponseWriter, r *http.Request) {
	paths, err := h.progress.Progression(r.Context(), learnerID(r))
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	if paths == nil {
		paths = []progression.PathProgress{}
	}
	writeJSON(w, http.StatusOK, paths)
}

// Get returns one path by slug
func (h *PathsHandler) Get(w http.ResponseWriter, r *http.Request) {
	path, err := h.progress.PathProgression(r.Context(), learnerID(r), r.PathValue("slug"))
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, path)
}
