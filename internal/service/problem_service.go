package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"amcmath/internal/logger"
	"amcmath/internal/models"
	"amcmath/internal/repository"
	"amcmath/internal/validation"
)

// RecentAttemptLimit is the number of attempts returned in a summary
const RecentAttemptLimit = 10

// ErrProblemNotFound is returned when no problem has the requested id
var ErrProblemNotFound = repository.ErrProblemNotFound

// SubmitAttempt is the payload of a new attempt
type SubmitAttempt struct {
	Outcome      string  `json:"outcome" validate:"required,oneof=CORRECT INCORRECT PARTIAL SKIPPED"`
	Response     *string `json:"response,omitempty" validate:"omitempty,max=1000"`
	Reflection   *string `json:"reflection,omitempty" validate:"omitempty,max=2000"`
	HintsUsed    *int    `json:"hintsUsed,omitempty" validate:"omitempty,gte=0"`
	TimeSpentSec *int    `json:"timeSpentSec,omitempty" validate:"omitempty,gte=0"`
}

// AttemptResult is the stored attempt and the refreshed summary
type AttemptResult struct {
	Attempt models.Attempt        `json:"attempt"`
	Summary models.AttemptSummary `json:"summary"`
}

// ProblemService serves problems and records learner attempts
type ProblemService struct {
	catalog  CatalogReader
	attempts AttemptStore
	log      *logger.Logger
	now      func() time.Time
}

// NewProblemService creates a new problem service
func NewProblemService(catalog CatalogReader, attempts AttemptStore, log *logger.Logger) *ProblemService {
	return &ProblemService{catalog: catalog, attempts: attempts, log: log, now: time.Now}
}

// GetProblem returns a problem with hints and catalog context
func (s *ProblemService) GetProblem(ctx context.Context, id string) (*models.ProblemDetail, error) {
	return s.catalog.GetProblem(ctx, id)
}

// RecordAttempt validates and stores an attempt, then updates the learner's
// progress on the problem's level
func (s *ProblemService) RecordAttempt(ctx context.Context, learner models.Learner, problemID string, in SubmitAttempt) (*AttemptResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	problem, err := s.catalog.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}

	attempt := models.Attempt{
		LearnerID:    learner.ID,
		ProblemID:    problem.ID,
		Outcome:      models.Outcome(in.Outcome),
		Approach:     trimmed(in.Response),
		Reflection:   trimmed(in.Reflection),
		TimeSpentSec: in.TimeSpentSec,
		SubmittedAt:  s.now().UTC(),
	}
	if in.HintsUsed != nil {
		attempt.HintsUsed = *in.HintsUsed
	}

	progress := models.LevelProgress{
		LearnerID: learner.ID,
		LevelID:   problem.Level.ID,
		Status:    models.ProgressInProgress,
		HintsUsed: attempt.HintsUsed,
	}
	if attempt.Outcome == models.OutcomeCorrect {
		progress.Status = models.ProgressMastered
		progress.MasteryScore = problem.Level.Points
	}

	stored, err := s.attempts.Record(ctx, attempt, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}
	s.log.Info("attempt recorded",
		"learner_id", learner.ID,
		"problem_id", problem.ID,
		"outcome", stored.Outcome,
	)

	summary, err := s.summarize(ctx, problem, learner.ID)
	if err != nil {
		return nil, err
	}
	return &AttemptResult{Attempt: *stored, Summary: *summary}, nil
}

// AttemptSummary reports the learner's standing and recent history on a problem
func (s *ProblemService) AttemptSummary(ctx context.Context, problemID, learnerID string) (*models.AttemptSummary, error) {
	problem, err := s.catalog.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, problem, learnerID)
}

func (s *ProblemService) summarize(ctx context.Context, problem *models.ProblemDetail, learnerID string) (*models.AttemptSummary, error) {
	recent, err := s.attempts.Recent(ctx, learnerID, problem.ID, RecentAttemptLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent attempts: %w", err)
	}
	count, solved, err := s.attempts.Stats(ctx, learnerID, problem.ID)
	if err != nil {
		return nil, err
	}

	summary := &models.AttemptSummary{
		ProblemID:     problem.ID,
		Status:        models.ProgressAvailable,
		AttemptsCount: count,
		Attempts:      recent,
	}
	if summary.Attempts == nil {
		summary.Attempts = []models.Attempt{}
	}
	switch {
	case solved:
		summary.Status = models.ProgressMastered
		summary.MasteryScore = problem.Level.Points
	case count > 0:
		summary.Status = models.ProgressInProgress
	}
	if len(recent) > 0 {
		latest := recent[0]
		summary.HintsUsed = latest.HintsUsed
		summary.LastInteraction = &latest.SubmittedAt
	}
	return summary, nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
