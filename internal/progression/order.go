package progression

import (
	"cmp"
	"slices"
	"strings"

	"amcmath/internal/models"
)

// PathPriority is the curated display order of the launch paths.
// Paths not listed here sort after all of them.
var PathPriority = []string{
	"algebra-avengers",
	"combinatoric-crusaders",
	"knights-of-number",
	"guild-of-the-geometers",
	"order-of-the-olympiad",
}

// farFuture is the rank of an unlisted path that has no order
const farFuture = 1 << 30

func pathRank(p models.Path) int {
	if i := slices.Index(PathPriority, p.Slug); i >= 0 {
		return i
	}
	if p.Order == nil {
		return farFuture
	}
	order := max(*p.Order, 0)
	return min(len(PathPriority)+order, farFuture)
}

// ComparePaths orders paths by priority rank, then by slug.
// It returns a negative number when a sorts before b.
func ComparePaths(a, b models.Path) int {
	if c := cmp.Compare(pathRank(a), pathRank(b)); c != 0 {
		return c
	}
	return strings.Compare(a.Slug, b.Slug)
}

// SortPaths returns a sorted copy of paths
func SortPaths(paths []models.Path) []models.Path {
	sorted := slices.Clone(paths)
	slices.SortStableFunc(sorted, ComparePaths)
	return sorted
}

func sortSubpaths(subpaths []models.Subpath) []models.Subpath {
	sorted := slices.Clone(subpaths)
	slices.SortStableFunc(sorted, func(a, b models.Subpath) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return sorted
}

func sortLevels(levels []models.Level) []models.Level {
	sorted := slices.Clone(levels)
	slices.SortStableFunc(sorted, func(a, b models.Level) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return sorted
}
