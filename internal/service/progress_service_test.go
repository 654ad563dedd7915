package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amcmath/internal/logger"
	"amcmath/internal/models"
	"amcmath/internal/progression"
)

func TestProgressionForLearner(t *testing.T) {
	attempts := &fakeAttempts{attempts: []models.Attempt{
		{LearnerID: "l1", ProblemID: "p1", Outcome: models.OutcomeCorrect},
		{LearnerID: "l2", ProblemID: "p2", Outcome: models.OutcomeIncorrect},
	}}
	svc := NewProgressService(&fakeCatalog{paths: fixtureCatalog()}, attempts, logger.Nop())

	paths, err := svc.Progression(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, []string{"p1", "p2"}, attempts.listed)

	tiles := paths[0].Subpaths[0].Levels[0].Tiles
	require.Len(t, tiles, progression.LevelSlots)
	assert.Equal(t, progression.StatusMastered, tiles[0].Status)
	assert.Equal(t, progression.StatusReady, tiles[1].Status, "another learner's attempts are ignored")
	assert.Equal(t, progression.Stats{Mastered: 1, Total: 2}, paths[0].Stats)
}

func TestProgressionAnonymous(t *testing.T) {
	attempts := &fakeAttempts{}
	svc := NewProgressService(&fakeCatalog{paths: fixtureCatalog()}, attempts, logger.Nop())

	paths, err := svc.Progression(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Nil(t, attempts.listed, "attempts are not loaded without a learner")
	assert.True(t, paths[0].IsUnlocked)
	assert.Equal(t, 0, paths[0].Stats.Mastered)
}

func TestProgressionCatalogError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewProgressService(&fakeCatalog{err: boom}, &fakeAttempts{}, logger.Nop())

	_, err := svc.Progression(context.Background(), "l1")
	assert.ErrorIs(t, err, boom)
}

func TestPathProgression(t *testing.T) {
	svc := NewProgressService(&fakeCatalog{paths: fixtureCatalog()}, &fakeAttempts{}, logger.Nop())

	p, err := svc.PathProgression(context.Background(), "l1", "algebra-avengers")
	require.NoError(t, err)
	assert.Equal(t, "Algebra Avengers", p.Title)

	_, err = svc.PathProgression(context.Background(), "l1", "nope")
	assert.ErrorIs(t, err, ErrPathNotFound)
}
