package service

import (
	"context"
	"fmt"
	"slices"

	"amcmath/internal/models"
)

type fakeCatalog struct {
	paths    []models.Path
	problems map[string]*models.ProblemDetail
	err      error
}

func (f *fakeCatalog) LoadCatalog(ctx context.Context) ([]models.Path, error) {
	return f.paths, f.err
}

func (f *fakeCatalog) GetProblem(ctx context.Context, id string) (*models.ProblemDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.problems[id]
	if !ok {
		return nil, ErrProblemNotFound
	}
	return p, nil
}

type fakeAttempts struct {
	attempts []models.Attempt
	progress []models.LevelProgress
	listed   []string
}

func (f *fakeAttempts) ListByLearner(ctx context.Context, learnerID string, problemIDs []string) (map[string][]models.Attempt, error) {
	f.listed = problemIDs
	out := make(map[string][]models.Attempt)
	for _, a := range f.newestFirst() {
		if a.LearnerID == learnerID && slices.Contains(problemIDs, a.ProblemID) {
			out[a.ProblemID] = append(out[a.ProblemID], a)
		}
	}
	return out, nil
}

func (f *fakeAttempts) Recent(ctx context.Context, learnerID, problemID string, limit int) ([]models.Attempt, error) {
	var out []models.Attempt
	for _, a := range f.newestFirst() {
		if a.LearnerID == learnerID && a.ProblemID == problemID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttempts) Stats(ctx context.Context, learnerID, problemID string) (int, bool, error) {
	count, solved := 0, false
	for _, a := range f.attempts {
		if a.LearnerID == learnerID && a.ProblemID == problemID {
			count++
			solved = solved || a.Outcome == models.OutcomeCorrect
		}
	}
	return count, solved, nil
}

func (f *fakeAttempts) Record(ctx context.Context, a models.Attempt, progress models.LevelProgress) (*models.Attempt, error) {
	if a.ID == "" {
		a.ID = fmt.Sprintf("attempt-%d", len(f.attempts)+1)
	}
	f.attempts = append(f.attempts, a)
	f.progress = append(f.progress, progress)
	return &a, nil
}

func (f *fakeAttempts) newestFirst() []models.Attempt {
	out := slices.Clone(f.attempts)
	slices.Reverse(out)
	return out
}

func fixtureCatalog() []models.Path {
	order := 1
	return []models.Path{{
		ID:    "path-1",
		Slug:  "algebra-avengers",
		Title: "Algebra Avengers",
		Order: &order,
		Subpaths: []models.Subpath{{
			ID:    "sub-1",
			Stage: models.StageBasic,
			Title: "Basic",
			Order: 1,
			Levels: []models.Level{{
				ID:     "level-1",
				Kind:   models.LevelKindPractice,
				Order:  1,
				Title:  "Warm-up",
				Points: 3,
				Problems: []models.Problem{
					{ID: "p1", Title: "One"},
					{ID: "p2", Title: "Two"},
				},
			}},
		}},
	}}
}

func fixtureDetail(id string) *models.ProblemDetail {
	d := &models.ProblemDetail{Problem: models.Problem{ID: id, Title: id}}
	d.Level.ID = "level-1"
	d.Level.Points = 3
	d.Level.Kind = models.LevelKindPractice
	return d
}
