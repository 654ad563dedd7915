package service

import (
	"context"

	"amcmath/internal/models"
	"amcmath/internal/repository"
)

// CatalogReader is the read side of the catalog repository
type CatalogReader interface {
	LoadCatalog(ctx context.Context) ([]models.Path, error)
	GetProblem(ctx context.Context, id string) (*models.ProblemDetail, error)
}

// AttemptStore is the attempt repository as seen by the services
type AttemptStore interface {
	ListByLearner(ctx context.Context, learnerID string, problemIDs []string) (map[string][]models.Attempt, error)
	Recent(ctx context.Context, learnerID, problemID string, limit int) ([]models.Attempt, error)
	Stats(ctx context.Context, learnerID, problemID string) (count int, solved bool, err error)
	Record(ctx context.Context, a models.Attempt, progress models.LevelProgress) (*models.Attempt, error)
}

var (
	_ CatalogReader = (*repository.CatalogRepository)(nil)
	_ AttemptStore  = (*repository.AttemptRepository)(nil)
)
