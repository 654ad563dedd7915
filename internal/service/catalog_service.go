package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"amcmath/internal/database"
	"amcmath/internal/logger"
	"amcmath/internal/models"
	"amcmath/internal/repository"
	"amcmath/internal/validation"
)

// catalogEpoch anchors seeded problem timestamps. A problem is stamped with
// its position in the level, rewritten on every seed.
var catalogEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// CatalogFile is the YAML layout of a catalog seed
type CatalogFile struct {
	Paths []PathSeed `yaml:"paths" validate:"required,min=1,dive"`
}

// PathSeed is one path of a catalog file
type PathSeed struct {
	Slug        string        `yaml:"slug" validate:"required,slug"`
	Title       string        `yaml:"title" validate:"required"`
	Description string        `yaml:"description"`
	ThemeColor  string        `yaml:"themeColor" validate:"omitempty,hexcolor"`
	Order       *int          `yaml:"order"`
	Subpaths    []SubpathSeed `yaml:"subpaths" validate:"dive"`
}

// SubpathSeed is one stage of a path. Order defaults to its list position.
type SubpathSeed struct {
	Stage       string      `yaml:"stage" validate:"required,oneof=BASIC INTERMEDIATE ADVANCED BOSS FINAL"`
	Title       string      `yaml:"title" validate:"required"`
	Description string      `yaml:"description"`
	Order       *int        `yaml:"order"`
	Levels      []LevelSeed `yaml:"levels" validate:"dive"`
}

// LevelSeed is one level of a stage
type LevelSeed struct {
	Title            string        `yaml:"title" validate:"required"`
	Subtitle         string        `yaml:"subtitle"`
	Description      string        `yaml:"description"`
	EstimatedMinutes *int          `yaml:"estimatedMinutes" validate:"omitempty,gte=0"`
	Problems         []ProblemSeed `yaml:"problems" validate:"dive"`
}

// ProblemSeed is one problem. Its position in the level is its display order.
type ProblemSeed struct {
	ID         string         `yaml:"id" validate:"required,max=191"`
	Title      string         `yaml:"title" validate:"required"`
	Statement  string         `yaml:"statement" validate:"required"`
	Solution   string         `yaml:"solution"`
	Difficulty int            `yaml:"difficulty" validate:"omitempty,min=1,max=5"`
	Tags       []string       `yaml:"tags"`
	Metadata   map[string]any `yaml:"metadata"`
	Hints      []HintSeed     `yaml:"hints" validate:"dive"`
}

// HintSeed is one hint, shown in list order
type HintSeed struct {
	Content string `yaml:"content" validate:"required"`
	Major   bool   `yaml:"major"`
}

// ParseCatalog decodes and validates a YAML catalog into model paths.
// Subpaths and levels take their list position as order unless one is given;
// level points and kind follow the subpath stage.
func ParseCatalog(r io.Reader) ([]models.Path, error) {
	var file CatalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := validation.Struct(file); err != nil {
		return nil, err
	}

	paths := make([]models.Path, 0, len(file.Paths))
	seenPaths := make(map[string]bool)
	seenProblems := make(map[string]string)
	for _, ps := range file.Paths {
		if seenPaths[ps.Slug] {
			return nil, fmt.Errorf("duplicate path slug %q", ps.Slug)
		}
		seenPaths[ps.Slug] = true

		p := models.Path{
			Slug:        ps.Slug,
			Title:       ps.Title,
			Description: ps.Description,
			ThemeColor:  ps.ThemeColor,
			Order:       ps.Order,
		}
		seenStages := make(map[models.Stage]bool)
		for i, ss := range ps.Subpaths {
			stage := models.Stage(ss.Stage)
			if seenStages[stage] {
				return nil, fmt.Errorf("path %s: duplicate stage %s", ps.Slug, stage)
			}
			seenStages[stage] = true

			sp := models.Subpath{
				Stage:       stage,
				Title:       ss.Title,
				Description: ss.Description,
				Order:       i + 1,
			}
			if ss.Order != nil {
				sp.Order = *ss.Order
			}
			for j, ls := range ss.Levels {
				level := models.Level{
					Kind:             models.KindForStage(stage),
					Order:            j + 1,
					Title:            ls.Title,
					Subtitle:         ls.Subtitle,
					Description:      ls.Description,
					EstimatedMinutes: ls.EstimatedMinutes,
					Points:           stage.Points(),
					IsPublished:      len(ls.Problems) > 0,
				}
				for k, prs := range ls.Problems {
					if where, dup := seenProblems[prs.ID]; dup {
						return nil, fmt.Errorf("duplicate problem id %q (already in %s)", prs.ID, where)
					}
					seenProblems[prs.ID] = fmt.Sprintf("%s/%s/%d", ps.Slug, stage, level.Order)

					problem, err := problemFromSeed(prs, k)
					if err != nil {
						return nil, err
					}
					level.Problems = append(level.Problems, problem)
				}
				sp.Levels = append(sp.Levels, level)
			}
			p.Subpaths = append(p.Subpaths, sp)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func problemFromSeed(ps ProblemSeed, index int) (models.Problem, error) {
	p := models.Problem{
		ID:         ps.ID,
		Title:      ps.Title,
		Statement:  ps.Statement,
		Solution:   ps.Solution,
		Difficulty: ps.Difficulty,
		Tags:       ps.Tags,
		CreatedAt:  catalogEpoch.Add(time.Duration(index) * time.Second),
	}
	if p.Difficulty == 0 {
		p.Difficulty = 1
	}
	if len(ps.Metadata) > 0 {
		raw, err := json.Marshal(ps.Metadata)
		if err != nil {
			return p, fmt.Errorf("problem %s: failed to encode metadata: %w", ps.ID, err)
		}
		p.Metadata = raw
	}
	for i, h := range ps.Hints {
		p.Hints = append(p.Hints, models.Hint{Order: i + 1, Content: h.Content, IsMajor: h.Major})
	}
	return p, nil
}

// SeedSummary counts what a seed wrote
type SeedSummary struct {
	Paths    int
	Subpaths int
	Levels   int
	Problems int
}

// CatalogService loads catalog seed files into the database
type CatalogService struct {
	db   *database.DB
	repo *repository.CatalogRepository
	log  *logger.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *database.DB, repo *repository.CatalogRepository, log *logger.Logger) *CatalogService {
	return &CatalogService{db: db, repo: repo, log: log}
}

// SeedFromFile seeds the catalog from a YAML file on disk
func (s *CatalogService) SeedFromFile(ctx context.Context, path string) (*SeedSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return s.Seed(ctx, f)
}

// Seed parses a YAML catalog and upserts it in one transaction
func (s *CatalogService) Seed(ctx context.Context, r io.Reader) (*SeedSummary, error) {
	paths, err := ParseCatalog(r)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, p := range paths {
			if err := s.repo.UpsertPath(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}

	summary := summarizeSeed(paths)
	s.log.Info("catalog seeded",
		"paths", summary.Paths,
		"subpaths", summary.Subpaths,
		"levels", summary.Levels,
		"problems", summary.Problems,
	)
	return &summary, nil
}

func summarizeSeed(paths []models.Path) SeedSummary {
	summary := SeedSummary{Paths: len(paths)}
	for _, p := range paths {
		summary.Subpaths += len(p.Subpaths)
		for _, sp := range p.Subpaths {
			summary.Levels += len(sp.Levels)
			for _, l := range sp.Levels {
				summary.Problems += len(l.Problems)
			}
		}
	}
	return summary
}
