package handlers

import (
	"context"
	"net/http"

	"amcmath/internal/logger"
	"amcmath/internal/models"
	"amcmath/internal/service"
)

// ProblemAPI is the part of service.ProblemService the API uses
type ProblemAPI interface {
	GetProblem(ctx context.Context, id string) (*models.ProblemDetail, error)
	AttemptSummary(ctx context.Context, problemID, learnerID string) (*models.AttemptSummary, error)
	RecordAttempt(ctx context.Context, learner models.Learner, problemID string, in service.SubmitAttempt) (*service.AttemptResult, error)
}

// ProblemHandler serves problems and accepts attempts
type ProblemHandler struct {
	problems ProblemAPI
	log      *logger.Logger
}

// NewProblemHandler creates a new problem handler
func NewProblemHandler(problems ProblemAPI, log *logger.Logger) *ProblemHandler {
	return &ProblemHandler{problems: problems, log: log}
}

// Get returns a problem with its hints and catalog context
func (h *ProblemHandler) Get(w http.ResponseWriter, r *http.Request) {
	problem, err := h.problems.GetProblem(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, problem)
}

// Summary returns the caller's standing on a problem
func (h *ProblemHandler) Summary(w http.ResponseWriter, r *http.Request) {
	learner := GetLearnerFromContext(r.Context())
	summary, err := h.problems.AttemptSummary(r.Context(), r.PathValue("id"), learner.ID)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// SubmitAttempt records an attempt for the caller
func (h *ProblemHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	learner := GetLearnerFromContext(r.Context())

	var in service.SubmitAttempt
	if err := decodeJSON(r, &in); err != nil {
		respondWithError(w, r, h.log, err)
		return
	}

	result, err := h.problems.RecordAttempt(r.Context(), *learner, r.PathValue("id"), in)
	if err != nil {
		respondWithError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
