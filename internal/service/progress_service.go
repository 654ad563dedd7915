package service

import (
	"context"
	"errors"
	"fmt"

	"amcmath/internal/logger"
	"amcmath/internal/models"
	"amcmath/internal/progression"
)

// ErrPathNotFound is returned when no path has the requested slug
var ErrPathNotFound = errors.New("path not found")

// ProgressService assembles the catalog and a learner's history for the
// progression engine
type ProgressService struct {
	catalog  CatalogReader
	attempts AttemptStore
	log      *logger.Logger
}

// NewProgressService creates a new progress service
func NewProgressService(catalog CatalogReader, attempts AttemptStore, log *logger.Logger) *ProgressService {
	return &ProgressService{catalog: catalog, attempts: attempts, log: log}
}

// Progression returns every path annotated for the learner. An empty
// learnerID yields the view of a learner with no attempts.
func (s *ProgressService) Progression(ctx context.Context, learnerID string) ([]progression.PathProgress, error) {
	catalog, err := s.catalog.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	var attempts map[string][]models.Attempt
	if learnerID != "" {
		attempts, err = s.attempts.ListByLearner(ctx, learnerID, models.ProblemIDs(catalog))
		if err != nil {
			return nil, fmt.Errorf("failed to load attempts: %w", err)
		}
	}

	result := progression.Compute(catalog, attempts)
	s.log.Debug("progression computed", "learner_id", learnerID, "paths", len(result), "attempted_problems", len(attempts))
	return result, nil
}

// PathProgression returns a single path annotated for the learner
func (s *ProgressService) PathProgression(ctx context.Context, learnerID, slug string) (*progression.PathProgress, error) {
	all, err := s.Progression(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Slug == slug {
			return &all[i], nil
		}
	}
	return nil, ErrPathNotFound
}
