package progression

import "amcmath/internal/models"

// Compute annotates the catalog with one learner's progression.
// attemptsByProblem maps a problem id to that learner's attempts on it; a
// nil or empty map describes a learner with no history.
func Compute(catalog []models.Path, attemptsByProblem map[string][]models.Attempt) []PathProgress {
	paths := SortPaths(catalog)
	out := make([]PathProgress, 0, len(paths))

	gate := pathGate{open: true}
	for _, p := range paths {
		var progress PathProgress
		progress, gate = annotatePath(p, gate, attemptsByProblem)
		out = append(out, progress)
	}
	return out
}

// StatusFromAttempts derives a tile status from attempt history alone
func StatusFromAttempts(attempts []models.Attempt) TileStatus {
	if len(attempts) == 0 {
		return StatusReady
	}
	for _, a := range attempts {
		if a.Outcome == models.OutcomeCorrect {
			return StatusMastered
		}
	}
	return StatusInProgress
}

// pathGate carries cross-path unlock state from one path to the next.
// open holds while every path so far is unlocked and completed.
type pathGate struct {
	open      bool
	prevTitle string
}

func annotatePath(p models.Path, gate pathGate, attempts map[string][]models.Attempt) (PathProgress, pathGate) {
	unlocked := gate.open

	progress := PathProgress{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		ThemeColor:  p.ThemeColor,
		Order:       p.Order,
		IsUnlocked:  unlocked,
		Subpaths:    make([]SubpathSummary, 0, len(p.Subpaths)),
	}
	if !unlocked {
		prev := gate.prevTitle
		progress.UnlockRequirement = &prev
	}

	previousCompleted := true
	allCompleted := len(p.Subpaths) > 0
	for _, sp := range sortSubpaths(p.Subpaths) {
		summary := annotateSubpath(sp, unlocked && previousCompleted, attempts)
		previousCompleted = previousCompleted && summary.IsCompleted
		allCompleted = allCompleted && summary.IsCompleted
		progress.Stats = progress.Stats.add(summary.Stats)
		progress.Subpaths = append(progress.Subpaths, summary)
	}
	progress.IsCompleted = allCompleted

	next := pathGate{
		open:      gate.open && progress.IsUnlocked && progress.IsCompleted,
		prevTitle: p.Title,
	}
	return progress, next
}

func annotateSubpath(sp models.Subpath, unlocked bool, attempts map[string][]models.Attempt) SubpathSummary {
	summary := SubpathSummary{
		ID:          sp.ID,
		Stage:       sp.Stage,
		Title:       sp.Title,
		Description: sp.Description,
		Order:       sp.Order,
		IsUnlocked:  unlocked,
		Levels:      make([]LevelSummary, 0, len(sp.Levels)),
	}
	for _, l := range sortLevels(sp.Levels) {
		level := annotateLevel(l, unlocked, attempts)
		summary.Stats = summary.Stats.add(level.Stats)
		summary.Levels = append(summary.Levels, level)
	}
	summary.IsCompleted = summary.Stats.complete()
	return summary
}

func annotateLevel(l models.Level, unlocked bool, attempts map[string][]models.Attempt) LevelSummary {
	summary := LevelSummary{
		ID:          l.ID,
		Title:       l.Title,
		Subtitle:    l.Subtitle,
		Description: l.Description,
		Kind:        l.Kind,
		Points:      l.Points,
		IsUnlocked:  unlocked,
		Tiles:       make([]ProblemTileSummary, 0, max(len(l.Problems), LevelSlots)),
	}

	allPreviousMastered := true
	for i, problem := range l.Problems {
		var tile ProblemTileSummary
		tile, allPreviousMastered = problemTile(i+1, problem, unlocked, allPreviousMastered, attempts[problem.ID])
		summary.Stats.Total++
		switch tile.Status {
		case StatusMastered:
			summary.Stats.Mastered++
		case StatusInProgress:
			summary.Stats.InProgress++
		}
		summary.Tiles = append(summary.Tiles, tile)
	}
	for pos := len(summary.Tiles) + 1; pos <= LevelSlots; pos++ {
		summary.Tiles = append(summary.Tiles, placeholderTile(pos))
	}

	summary.IsCompleted = summary.Stats.complete()
	return summary
}

// problemTile evaluates one authored problem and returns the updated
// allPreviousMastered flag for the next tile in the level.
func problemTile(pos int, problem models.Problem, unlocked, allPreviousMastered bool, attempts []models.Attempt) (ProblemTileSummary, bool) {
	status := StatusLocked
	if unlocked && allPreviousMastered {
		status = StatusFromAttempts(attempts)
	}
	tile := ProblemTileSummary{
		Position:     pos,
		ProblemID:    problem.ID,
		Title:        problem.Title,
		Status:       status,
		IsAccessible: status != StatusLocked,
		AttemptCount: len(attempts),
	}
	return tile, allPreviousMastered && status == StatusMastered
}

func placeholderTile(pos int) ProblemTileSummary {
	return ProblemTileSummary{
		Position:      pos,
		Status:        StatusComingSoon,
		IsPlaceholder: true,
	}
}
