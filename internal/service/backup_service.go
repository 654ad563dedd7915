package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"amcmath/internal/database"
	"amcmath/internal/logger"
	"amcmath/internal/models"
	"amcmath/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string           `json:"version"`
	ExportedAt   time.Time        `json:"exportedAt"`
	DatabaseType string           `json:"databaseType"`
	Paths        []models.Path    `json:"paths"`
	Attempts     []models.Attempt `json:"attempts"`
}

// ImportSummary counts what an import restored
type ImportSummary struct {
	Paths    int
	Problems int
	Attempts int
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db       *database.DB
	catalog  *repository.CatalogRepository
	attempts *repository.AttemptRepository
	log      *logger.Logger
	now      func() time.Time
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, catalog *repository.CatalogRepository, attempts *repository.AttemptRepository, log *logger.Logger) *BackupService {
	return &BackupService{db: db, catalog: catalog, attempts: attempts, log: log, now: time.Now}
}

// Export writes the full catalog, hints included, and every attempt as JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	paths, err := s.catalog.ExportCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export catalog: %w", err)
	}
	hints, err := s.catalog.AllHints(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export hints: %w", err)
	}
	attachHints(paths, hints)

	attempts, err := s.attempts.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export attempts: %w", err)
	}

	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   s.now().UTC(),
		DatabaseType: s.db.GetDialect().DriverName(),
		Paths:        paths,
		Attempts:     attempts,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("database exported",
		"paths", len(backup.Paths),
		"problems", len(models.ProblemIDs(backup.Paths)),
		"attempts", len(backup.Attempts),
	)
	return backup, nil
}

func attachHints(paths []models.Path, hints map[string][]models.Hint) {
	for i := range paths {
		for j := range paths[i].Subpaths {
			levels := paths[i].Subpaths[j].Levels
			for k := range levels {
				for n := range levels[k].Problems {
					p := &levels[k].Problems[n]
					p.Hints = hints[p.ID]
				}
			}
		}
	}
}

// Import restores a backup in one transaction. Existing rows are updated in
// place and attempts already present are left untouched.
func (s *BackupService) Import(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, p := range backup.Paths {
			if err := s.catalog.UpsertPath(ctx, tx, p); err != nil {
				return err
			}
		}
		for _, a := range backup.Attempts {
			if err := s.attempts.Insert(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import backup: %w", err)
	}

	summary := &ImportSummary{
		Paths:    len(backup.Paths),
		Problems: len(models.ProblemIDs(backup.Paths)),
		Attempts: len(backup.Attempts),
	}
	s.log.Info("database imported",
		"exportedAt", backup.ExportedAt,
		"paths", summary.Paths,
		"problems", summary.Problems,
		"attempts", summary.Attempts,
	)
	return summary, nil
}

// Clear removes all learner data and the catalog
func (s *BackupService) Clear(ctx context.Context) error {
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := s.attempts.Clear(ctx, tx); err != nil {
			return err
		}
		return s.catalog.Clear(ctx, tx)
	})
	if err != nil {
		return err
	}
	s.log.Warn("database cleared")
	return nil
}
