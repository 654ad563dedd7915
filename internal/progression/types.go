// Package progression turns the catalog and a learner's attempt history into
// the annotated path tree the client renders: which paths and subpaths are
// unlocked, the status of every problem tile, and mastery counters at each
// level of the hierarchy.
//
// Compute is pure. It performs no I/O, never mutates its inputs and returns
// identical output for identical input.
package progression

import "amcmath/internal/models"

// TileStatus is the display state of a single problem slot
type TileStatus string

const (
	StatusLocked     TileStatus = "LOCKED"
	StatusReady      TileStatus = "READY"
	StatusInProgress TileStatus = "IN_PROGRESS"
	StatusMastered   TileStatus = "MASTERED"
	StatusComingSoon TileStatus = "COMING_SOON"
)

// LevelSlots is the number of tiles every level is padded up to.
// Levels with more authored problems keep all of them.
const LevelSlots = 15

// Stats counts real tiles. Placeholders never contribute.
type Stats struct {
	Mastered   int `json:"mastered"`
	Total      int `json:"total"`
	InProgress int `json:"inProgress"`
}

func (s Stats) add(o Stats) Stats {
	return Stats{
		Mastered:   s.Mastered + o.Mastered,
		Total:      s.Total + o.Total,
		InProgress: s.InProgress + o.InProgress,
	}
}

// complete reports whether every counted tile is mastered.
// An empty set is never complete.
func (s Stats) complete() bool {
	return s.Total > 0 && s.Mastered == s.Total
}

// ProblemTileSummary is one slot in a level's tile grid
type ProblemTileSummary struct {
	Position      int        `json:"position"`
	ProblemID     string     `json:"problemId,omitempty"`
	Title         string     `json:"title,omitempty"`
	Status        TileStatus `json:"status"`
	IsAccessible  bool       `json:"isAccessible"`
	IsPlaceholder bool       `json:"isPlaceholder"`
	AttemptCount  int        `json:"attemptCount"`
}

// LevelSummary is a level with its tile grid
type LevelSummary struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Subtitle    string               `json:"subtitle,omitempty"`
	Description string               `json:"description,omitempty"`
	Kind        models.LevelKind     `json:"kind"`
	Points      int                  `json:"points"`
	IsUnlocked  bool                 `json:"isUnlocked"`
	IsCompleted bool                 `json:"isCompleted"`
	Stats       Stats                `json:"stats"`
	Tiles       []ProblemTileSummary `json:"tiles"`
}

// SubpathSummary is a stage of a path with its levels
type SubpathSummary struct {
	ID          string         `json:"id"`
	Stage       models.Stage   `json:"stage"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Order       int            `json:"order"`
	IsUnlocked  bool           `json:"isUnlocked"`
	IsCompleted bool           `json:"isCompleted"`
	Stats       Stats          `json:"stats"`
	Levels      []LevelSummary `json:"levels"`
}

// PathProgress is a path annotated for one learner
type PathProgress struct {
	ID                string           `json:"id"`
	Slug              string           `json:"slug"`
	Title             string           `json:"title"`
	Description       string           `json:"description,omitempty"`
	ThemeColor        string           `json:"themeColor,omitempty"`
	Order             *int             `json:"order,omitempty"`
	IsUnlocked        bool             `json:"isUnlocked"`
	IsCompleted       bool             `json:"isCompleted"`
	UnlockRequirement *string          `json:"unlockRequirement,omitempty"`
	Stats             Stats            `json:"stats"`
	Subpaths          []SubpathSummary `json:"subpaths"`
}
