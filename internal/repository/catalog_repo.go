package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"amcmath/internal/database"
	"amcmath/internal/models"
)

// ErrProblemNotFound is returned when no problem has the requested id
var ErrProblemNotFound = errors.New("problem not found")

// CatalogRepository reads and seeds the path/subpath/level/problem tree
type CatalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// LoadCatalog returns the catalog tree served to learners. Problems within a
// level are ordered oldest first; archived problems and hints are not loaded.
func (r *CatalogRepository) LoadCatalog(ctx context.Context) ([]models.Path, error) {
	return r.loadTree(ctx, false)
}

// ExportCatalog is LoadCatalog including archived problems
func (r *CatalogRepository) ExportCatalog(ctx context.Context) ([]models.Path, error) {
	return r.loadTree(ctx, true)
}

func (r *CatalogRepository) loadTree(ctx context.Context, withArchived bool) ([]models.Path, error) {
	paths, err := r.loadPaths(ctx)
	if err != nil {
		return nil, err
	}
	subpaths, err := r.loadSubpaths(ctx)
	if err != nil {
		return nil, err
	}
	levels, err := r.loadLevels(ctx)
	if err != nil {
		return nil, err
	}
	problems, err := r.loadProblems(ctx, withArchived)
	if err != nil {
		return nil, err
	}

	for i := range levels {
		levels[i].Problems = problems[levels[i].ID]
	}
	levelsBySubpath := make(map[string][]models.Level)
	for _, l := range levels {
		levelsBySubpath[l.SubpathID] = append(levelsBySubpath[l.SubpathID], l)
	}
	subpathsByPath := make(map[string][]models.Subpath)
	for _, sp := range subpaths {
		sp.Levels = levelsBySubpath[sp.ID]
		subpathsByPath[sp.PathID] = append(subpathsByPath[sp.PathID], sp)
	}
	for i := range paths {
		paths[i].Subpaths = subpathsByPath[paths[i].ID]
	}

	return paths, nil
}

func (r *CatalogRepository) loadPaths(ctx context.Context) ([]models.Path, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, slug, title, description, theme_color, sort_order
		FROM paths
		ORDER BY slug
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query paths: %w", err)
	}
	defer rows.Close()

	var paths []models.Path
	for rows.Next() {
		var p models.Path
		var order sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.ThemeColor, &order); err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		if order.Valid {
			v := int(order.Int64)
			p.Order = &v
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (r *CatalogRepository) loadSubpaths(ctx context.Context) ([]models.Subpath, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, path_id, stage, title, description, sort_order
		FROM subpaths
		ORDER BY path_id, sort_order
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subpaths: %w", err)
	}
	defer rows.Close()

	var subpaths []models.Subpath
	for rows.Next() {
		var sp models.Subpath
		if err := rows.Scan(&sp.ID, &sp.PathID, &sp.Stage, &sp.Title, &sp.Description, &sp.Order); err != nil {
			return nil, fmt.Errorf("failed to scan subpath: %w", err)
		}
		subpaths = append(subpaths, sp)
	}
	return subpaths, rows.Err()
}

func (r *CatalogRepository) loadLevels(ctx context.Context) ([]models.Level, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subpath_id, kind, sort_order, title, subtitle, description,
		       estimated_minutes, points, is_published
		FROM levels
		ORDER BY subpath_id, sort_order
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query levels: %w", err)
	}
	defer rows.Close()

	var levels []models.Level
	for rows.Next() {
		var l models.Level
		var minutes sql.NullInt64
		if err := rows.Scan(&l.ID, &l.SubpathID, &l.Kind, &l.Order, &l.Title, &l.Subtitle, &l.Description,
			&minutes, &l.Points, &l.IsPublished); err != nil {
			return nil, fmt.Errorf("failed to scan level: %w", err)
		}
		if minutes.Valid {
			v := int(minutes.Int64)
			l.EstimatedMinutes = &v
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// loadProblems returns problems grouped by level id
func (r *CatalogRepository) loadProblems(ctx context.Context, withArchived bool) (map[string][]models.Problem, error) {
	query := "SELECT " + problemColumns + " FROM problems"
	var args []any
	if !withArchived {
		query += " WHERE archived = ?"
		args = append(args, false)
	}
	rows, err := r.db.QueryContext(ctx, query+" ORDER BY level_id, created_at, id", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query problems: %w", err)
	}
	defer rows.Close()

	byLevel := make(map[string][]models.Problem)
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, err
		}
		byLevel[p.LevelID] = append(byLevel[p.LevelID], p)
	}
	return byLevel, rows.Err()
}

const problemColumns = "id, level_id, title, statement, solution, difficulty, tags, metadata, created_at, archived"

type scanner interface {
	Scan(dest ...any) error
}

func scanProblem(row scanner, extra ...any) (models.Problem, error) {
	var p models.Problem
	var tags string
	var metadata sql.NullString
	dest := append([]any{&p.ID, &p.LevelID, &p.Title, &p.Statement, &p.Solution, &p.Difficulty, &tags, &metadata, &p.CreatedAt, &p.IsArchived}, extra...)
	if err := row.Scan(dest...); err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return p, fmt.Errorf("failed to decode tags of problem %s: %w", p.ID, err)
	}
	if metadata.Valid && metadata.String != "" {
		p.Metadata = json.RawMessage(metadata.String)
	}
	return p, nil
}

// GetProblem returns a problem with its ordered hints and catalog context
func (r *CatalogRepository) GetProblem(ctx context.Context, id string) (*models.ProblemDetail, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT pr.id, pr.level_id, pr.title, pr.statement, pr.solution, pr.difficulty, pr.tags, pr.metadata, pr.created_at, pr.archived,
		       l.title, l.kind, l.points,
		       sp.id, sp.stage, sp.title,
		       p.id, p.slug, p.title
		FROM problems pr
		JOIN levels l ON l.id = pr.level_id
		JOIN subpaths sp ON sp.id = l.subpath_id
		JOIN paths p ON p.id = sp.path_id
		WHERE pr.id = ? AND pr.archived = ?
	`, id, false)

	detail := &models.ProblemDetail{}
	problem, err := scanProblem(row,
		&detail.Level.Title, &detail.Level.Kind, &detail.Level.Points,
		&detail.Subpath.ID, &detail.Subpath.Stage, &detail.Subpath.Title,
		&detail.Path.ID, &detail.Path.Slug, &detail.Path.Title,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProblemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}
	detail.Problem = problem
	detail.Level.ID = problem.LevelID

	hints, err := r.hints(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Hints = hints
	return detail, nil
}

func (r *CatalogRepository) hints(ctx context.Context, problemID string) ([]models.Hint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, problem_id, sort_order, content, is_major
		FROM problem_hints
		WHERE problem_id = ?
		ORDER BY sort_order
	`, problemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query hints: %w", err)
	}
	defer rows.Close()

	var hints []models.Hint
	for rows.Next() {
		var h models.Hint
		if err := rows.Scan(&h.ID, &h.ProblemID, &h.Order, &h.Content, &h.IsMajor); err != nil {
			return nil, fmt.Errorf("failed to scan hint: %w", err)
		}
		hints = append(hints, h)
	}
	return hints, rows.Err()
}

// AllHints returns every hint grouped by problem id
func (r *CatalogRepository) AllHints(ctx context.Context) (map[string][]models.Hint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, problem_id, sort_order, content, is_major
		FROM problem_hints
		ORDER BY problem_id, sort_order
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hints: %w", err)
	}
	defer rows.Close()

	byProblem := make(map[string][]models.Hint)
	for rows.Next() {
		var h models.Hint
		if err := rows.Scan(&h.ID, &h.ProblemID, &h.Order, &h.Content, &h.IsMajor); err != nil {
			return nil, fmt.Errorf("failed to scan hint: %w", err)
		}
		byProblem[h.ProblemID] = append(byProblem[h.ProblemID], h)
	}
	return byProblem, rows.Err()
}

// UpsertPath writes a path and everything beneath it. Rows are matched by
// slug, (path, stage), (subpath, order) and problem id so seeding twice is a
// no-op. Problems no longer listed under a seeded level are removed, or
// archived when learners have attempted them. Hints are replaced wholesale.
func (r *CatalogRepository) UpsertPath(ctx context.Context, db database.DBTX, p models.Path) error {
	d := db.GetDialect()

	var order any
	if p.Order != nil {
		order = *p.Order
	}
	_, err := db.ExecContext(ctx,
		d.Upsert("paths",
			[]string{"id", "slug", "title", "description", "theme_color", "sort_order"},
			[]string{"slug"},
			[]string{"title", "description", "theme_color", "sort_order"}),
		newID(p.ID), p.Slug, p.Title, p.Description, p.ThemeColor, order,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert path %s: %w", p.Slug, err)
	}
	pathID, err := lookupID(ctx, db, "SELECT id FROM paths WHERE slug = ?", p.Slug)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", p.Slug, err)
	}

	for _, sp := range p.Subpaths {
		if err := r.upsertSubpath(ctx, db, pathID, sp); err != nil {
			return fmt.Errorf("path %s: %w", p.Slug, err)
		}
	}
	return nil
}

func (r *CatalogRepository) upsertSubpath(ctx context.Context, db database.DBTX, pathID string, sp models.Subpath) error {
	_, err := db.ExecContext(ctx,
		db.GetDialect().Upsert("subpaths",
			[]string{"id", "path_id", "stage", "title", "description", "sort_order"},
			[]string{"path_id", "stage"},
			[]string{"title", "description", "sort_order"}),
		newID(sp.ID), pathID, string(sp.Stage), sp.Title, sp.Description, sp.Order,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subpath %s: %w", sp.Stage, err)
	}
	subpathID, err := lookupID(ctx, db, "SELECT id FROM subpaths WHERE path_id = ? AND stage = ?", pathID, string(sp.Stage))
	if err != nil {
		return fmt.Errorf("failed to resolve subpath %s: %w", sp.Stage, err)
	}

	for _, l := range sp.Levels {
		if err := r.upsertLevel(ctx, db, subpathID, l); err != nil {
			return fmt.Errorf("subpath %s: %w", sp.Stage, err)
		}
	}
	return nil
}

func (r *CatalogRepository) upsertLevel(ctx context.Context, db database.DBTX, subpathID string, l models.Level) error {
	var minutes any
	if l.EstimatedMinutes != nil {
		minutes = *l.EstimatedMinutes
	}
	_, err := db.ExecContext(ctx,
		db.GetDialect().Upsert("levels",
			[]string{"id", "subpath_id", "kind", "sort_order", "title", "subtitle", "description", "estimated_minutes", "points", "is_published"},
			[]string{"subpath_id", "sort_order"},
			[]string{"kind", "title", "subtitle", "description", "estimated_minutes", "points", "is_published"}),
		newID(l.ID), subpathID, string(l.Kind), l.Order, l.Title, l.Subtitle, l.Description, minutes, l.Points, l.IsPublished,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert level %d: %w", l.Order, err)
	}
	levelID, err := lookupID(ctx, db, "SELECT id FROM levels WHERE subpath_id = ? AND sort_order = ?", subpathID, l.Order)
	if err != nil {
		return fmt.Errorf("failed to resolve level %d: %w", l.Order, err)
	}

	if len(l.Problems) == 0 {
		return nil
	}

	ids := make([]any, 0, len(l.Problems)+1)
	ids = append(ids, levelID)
	for _, p := range l.Problems {
		if err := upsertProblem(ctx, db, levelID, p); err != nil {
			return fmt.Errorf("level %d: %w", l.Order, err)
		}
		ids = append(ids, p.ID)
	}

	// attempts reference problems, so attempted ones are archived instead of deleted
	dropped := "level_id = ? AND id NOT IN (" + database.Placeholders(len(l.Problems)) + ")"
	attempted := "EXISTS (SELECT 1 FROM attempts a WHERE a.problem_id = problems.id)"
	_, err = db.ExecContext(ctx,
		"UPDATE problems SET archived = ? WHERE "+dropped+" AND "+attempted,
		append([]any{true}, ids...)...,
	)
	if err != nil {
		return fmt.Errorf("failed to archive problems of level %d: %w", l.Order, err)
	}
	_, err = db.ExecContext(ctx, "DELETE FROM problems WHERE "+dropped+" AND NOT "+attempted, ids...)
	if err != nil {
		return fmt.Errorf("failed to prune problems of level %d: %w", l.Order, err)
	}
	return nil
}

func upsertProblem(ctx context.Context, db database.DBTX, levelID string, p models.Problem) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	encodedTags, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags of problem %s: %w", p.ID, err)
	}
	var metadata any
	if len(p.Metadata) > 0 {
		metadata = string(p.Metadata)
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = db.ExecContext(ctx,
		db.GetDialect().Upsert("problems",
			[]string{"id", "level_id", "title", "statement", "solution", "difficulty", "tags", "metadata", "created_at", "archived"},
			[]string{"id"},
			[]string{"level_id", "title", "statement", "solution", "difficulty", "tags", "metadata", "created_at", "archived"}),
		p.ID, levelID, p.Title, p.Statement, p.Solution, p.Difficulty, string(encodedTags), metadata, createdAt, p.IsArchived,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert problem %s: %w", p.ID, err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM problem_hints WHERE problem_id = ?", p.ID); err != nil {
		return fmt.Errorf("failed to clear hints of problem %s: %w", p.ID, err)
	}
	for _, h := range p.Hints {
		_, err := db.ExecContext(ctx,
			"INSERT INTO problem_hints (id, problem_id, sort_order, content, is_major) VALUES (?, ?, ?, ?, ?)",
			newID(h.ID), p.ID, h.Order, h.Content, h.IsMajor,
		)
		if err != nil {
			return fmt.Errorf("failed to insert hint %d of problem %s: %w", h.Order, p.ID, err)
		}
	}
	return nil
}

// Clear removes the whole catalog
func (r *CatalogRepository) Clear(ctx context.Context, db database.DBTX) error {
	for _, table := range []string{"problem_hints", "problems", "levels", "subpaths", "paths"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func lookupID(ctx context.Context, db database.DBTX, query string, args ...any) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, query, args...).Scan(&id)
	return id, err
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
