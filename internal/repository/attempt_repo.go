package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"amcmath/internal/database"
	"amcmath/internal/models"
)

// inListChunk bounds the number of ids bound in a single IN list
const inListChunk = 500

// AttemptRepository stores learner attempts and level progress
type AttemptRepository struct {
	db *database.DB
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db *database.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func scanAttempt(row scanner) (models.Attempt, error) {
	var a models.Attempt
	var spent sql.NullInt64
	err := row.Scan(&a.ID, &a.LearnerID, &a.ProblemID, &a.Outcome, &a.Approach, &a.Reflection, &a.HintsUsed, &spent, &a.SubmittedAt)
	if spent.Valid {
		v := int(spent.Int64)
		a.TimeSpentSec = &v
	}
	return a, err
}

func scanAttempts(rows *sql.Rows) ([]models.Attempt, error) {
	defer rows.Close()
	var attempts []models.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

var (
	attemptColumnList = []string{"id", "learner_id", "problem_id", "outcome", "approach", "reflection", "hints_used", "time_spent_sec", "submitted_at"}
	attemptColumns    = strings.Join(attemptColumnList, ", ")
)

func attemptArgs(a models.Attempt) []any {
	var spent any
	if a.TimeSpentSec != nil {
		spent = *a.TimeSpentSec
	}
	return []any{a.ID, a.LearnerID, a.ProblemID, string(a.Outcome), a.Approach, a.Reflection, a.HintsUsed, spent, a.SubmittedAt}
}

func insertAttempt(ctx context.Context, db database.DBTX, a models.Attempt) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO attempts ("+attemptColumns+") VALUES ("+database.Placeholders(len(attemptColumnList))+")",
		attemptArgs(a)...,
	)
	return err
}

// Record stores an attempt and folds it into the learner's level progress in
// a single transaction. Missing ids and timestamps are filled in.
func (r *AttemptRepository) Record(ctx context.Context, a models.Attempt, progress models.LevelProgress) (*models.Attempt, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = time.Now().UTC()
	}

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := insertAttempt(ctx, tx, a); err != nil {
			return fmt.Errorf("failed to insert attempt: %w", err)
		}
		if err := upsertLevelProgress(ctx, tx, progress, a.SubmittedAt); err != nil {
			return fmt.Errorf("failed to update level progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// upsertLevelProgress writes the level row in a single statement. The
// latest outcome sets the status; the mastery score is only replaced by a
// mastered attempt.
func upsertLevelProgress(ctx context.Context, db database.DBTX, p models.LevelProgress, at time.Time) error {
	update := []string{"status", "hints_used", "last_interaction"}
	if p.Status == models.ProgressMastered {
		update = append(update, "mastery_score")
	}
	_, err := db.ExecContext(ctx,
		db.GetDialect().UpsertCounting("level_progress",
			[]string{"learner_id", "level_id", "status", "mastery_score", "attempts_count", "hints_used", "unlocked_at", "last_interaction"},
			[]string{"learner_id", "level_id"},
			update,
			"attempts_count"),
		p.LearnerID, p.LevelID, string(p.Status), p.MasteryScore, 1, p.HintsUsed, at, at,
	)
	return err
}

// LevelProgress returns the learner's progress row for a level, or nil
func (r *AttemptRepository) LevelProgress(ctx context.Context, learnerID, levelID string) (*models.LevelProgress, error) {
	p := &models.LevelProgress{}
	err := r.db.QueryRowContext(ctx, `
		SELECT learner_id, level_id, status, mastery_score, attempts_count, hints_used, unlocked_at, last_interaction
		FROM level_progress
		WHERE learner_id = ? AND level_id = ?
	`, learnerID, levelID).Scan(&p.LearnerID, &p.LevelID, &p.Status, &p.MasteryScore, &p.AttemptsCount, &p.HintsUsed, &p.UnlockedAt, &p.LastInteraction)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get level progress: %w", err)
	}
	return p, nil
}

// ListByLearner returns the learner's attempts on the given problems keyed by
// problem id, newest first. Problems without attempts are absent.
func (r *AttemptRepository) ListByLearner(ctx context.Context, learnerID string, problemIDs []string) (map[string][]models.Attempt, error) {
	out := make(map[string][]models.Attempt)
	for start := 0; start < len(problemIDs); start += inListChunk {
		chunk := problemIDs[start:min(start+inListChunk, len(problemIDs))]

		args := make([]any, 0, len(chunk)+1)
		args = append(args, learnerID)
		for _, id := range chunk {
			args = append(args, id)
		}

		rows, err := r.db.QueryContext(ctx,
			"SELECT "+attemptColumns+" FROM attempts WHERE learner_id = ? AND problem_id IN ("+database.Placeholders(len(chunk))+") ORDER BY submitted_at DESC, id",
			args...,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to query attempts: %w", err)
		}
		attempts, err := scanAttempts(rows)
		if err != nil {
			return nil, err
		}
		for _, a := range attempts {
			out[a.ProblemID] = append(out[a.ProblemID], a)
		}
	}
	return out, nil
}

// Recent returns up to limit of the learner's newest attempts on a problem
func (r *AttemptRepository) Recent(ctx context.Context, learnerID, problemID string, limit int) ([]models.Attempt, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+attemptColumns+" FROM attempts WHERE learner_id = ? AND problem_id = ? ORDER BY submitted_at DESC, id LIMIT ?",
		learnerID, problemID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent attempts: %w", err)
	}
	return scanAttempts(rows)
}

// Stats returns how many attempts the learner made on a problem and whether any was correct
func (r *AttemptRepository) Stats(ctx context.Context, learnerID, problemID string) (count int, solved bool, err error) {
	var correct int
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0)
		FROM attempts
		WHERE learner_id = ? AND problem_id = ?
	`, string(models.OutcomeCorrect), learnerID, problemID).Scan(&count, &correct)
	if err != nil {
		return 0, false, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, correct > 0, nil
}

// All returns every stored attempt, oldest first
func (r *AttemptRepository) All(ctx context.Context) ([]models.Attempt, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+attemptColumns+" FROM attempts ORDER BY submitted_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	return scanAttempts(rows)
}

// Insert stores an attempt as-is, skipping it if the id already exists
func (r *AttemptRepository) Insert(ctx context.Context, db database.DBTX, a models.Attempt) error {
	_, err := db.ExecContext(ctx, db.GetDialect().Upsert("attempts", attemptColumnList, []string{"id"}, nil), attemptArgs(a)...)
	if err != nil {
		return fmt.Errorf("failed to insert attempt %s: %w", a.ID, err)
	}
	return nil
}

// Clear removes all attempts and level progress
func (r *AttemptRepository) Clear(ctx context.Context, db database.DBTX) error {
	for _, table := range []string{"level_progress", "attempts"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
