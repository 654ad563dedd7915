package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"amcmath/internal/models"
)

func slugs(paths []models.Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.Slug
	}
	return out
}

func TestSortPaths(t *testing.T) {
	tests := []struct {
		name  string
		paths []models.Path
		want  []string
	}{
		{
			name: "priority list beats order",
			paths: []models.Path{
				{Slug: "order-of-the-olympiad", Order: intPtr(1)},
				{Slug: "algebra-avengers", Order: intPtr(9)},
				{Slug: "knights-of-number", Order: intPtr(0)},
			},
			want: []string{"algebra-avengers", "knights-of-number", "order-of-the-olympiad"},
		},
		{
			name: "unlisted paths follow listed ones",
			paths: []models.Path{
				{Slug: "zz-new", Order: intPtr(0)},
				{Slug: "guild-of-the-geometers", Order: intPtr(100)},
			},
			want: []string{"guild-of-the-geometers", "zz-new"},
		},
		{
			name: "unlisted paths sort by order then missing order",
			paths: []models.Path{
				{Slug: "no-order"},
				{Slug: "late", Order: intPtr(7)},
				{Slug: "early", Order: intPtr(2)},
			},
			want: []string{"early", "late", "no-order"},
		},
		{
			name: "ties broken by slug",
			paths: []models.Path{
				{Slug: "bravo", Order: intPtr(3)},
				{Slug: "alpha", Order: intPtr(3)},
				{Slug: "delta"},
				{Slug: "charlie"},
			},
			want: []string{"alpha", "bravo", "charlie", "delta"},
		},
		{
			name: "negative order clamps to zero",
			paths: []models.Path{
				{Slug: "b", Order: intPtr(0)},
				{Slug: "a", Order: intPtr(-5)},
				{Slug: "combinatoric-crusaders", Order: intPtr(2)},
			},
			want: []string{"combinatoric-crusaders", "a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slugs(SortPaths(tt.paths)))
		})
	}
}

func TestSortPathsLeavesInputAlone(t *testing.T) {
	in := []models.Path{{Slug: "knights-of-number"}, {Slug: "algebra-avengers"}}
	_ = SortPaths(in)
	assert.Equal(t, []string{"knights-of-number", "algebra-avengers"}, slugs(in))
}

func TestComparePaths(t *testing.T) {
	a := models.Path{Slug: "algebra-avengers"}
	b := models.Path{Slug: "combinatoric-crusaders"}
	other := models.Path{Slug: "aardvark", Order: intPtr(0)}

	assert.Negative(t, ComparePaths(a, b))
	assert.Positive(t, ComparePaths(b, a))
	assert.Zero(t, ComparePaths(a, a))
	assert.Negative(t, ComparePaths(b, other))
	assert.Positive(t, ComparePaths(other, a))
}
