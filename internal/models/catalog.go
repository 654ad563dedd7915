package models

import (
	"encoding/json"
	"time"
)

// Stage identifies the position of a subpath inside its path
type Stage string

const (
	StageBasic        Stage = "BASIC"
	StageIntermediate Stage = "INTERMEDIATE"
	StageAdvanced     Stage = "ADVANCED"
	StageBoss         Stage = "BOSS"
	StageFinal        Stage = "FINAL"
)

// stagePoints is the mastery score a level awards, by stage
var stagePoints = map[Stage]int{
	StageBasic:        3,
	StageIntermediate: 4,
	StageAdvanced:     7,
	StageBoss:         10,
	StageFinal:        10,
}

// Valid reports whether s is a known stage
func (s Stage) Valid() bool {
	_, ok := stagePoints[s]
	return ok
}

// Points returns the mastery score awarded by levels in this stage
func (s Stage) Points() int {
	return stagePoints[s]
}

// LevelKind distinguishes ordinary practice levels from boss fights and the olympiad
type LevelKind string

const (
	LevelKindPractice LevelKind = "PRACTICE"
	LevelKindBoss     LevelKind = "BOSS"
	LevelKindOlympiad LevelKind = "OLYMPIAD"
)

// Valid reports whether k is a known level kind
func (k LevelKind) Valid() bool {
	switch k {
	case LevelKindPractice, LevelKindBoss, LevelKindOlympiad:
		return true
	}
	return false
}

// KindForStage returns the level kind used for levels of the given stage
func KindForStage(s Stage) LevelKind {
	switch s {
	case StageBoss:
		return LevelKindBoss
	case StageFinal:
		return LevelKindOlympiad
	default:
		return LevelKindPractice
	}
}

// Path is a top-level themed learning track
type Path struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ThemeColor  string    `json:"themeColor,omitempty"`
	Order       *int      `json:"order,omitempty"`
	Subpaths    []Subpath `json:"subpaths"`
}

// Subpath is a stage within a path
type Subpath struct {
	ID          string  `json:"id"`
	PathID      string  `json:"pathId"`
	Stage       Stage   `json:"stage"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Order       int     `json:"order"`
	Levels      []Level `json:"levels"`
}

// Level groups up to fifteen problems
type Level struct {
	ID               string    `json:"id"`
	SubpathID        string    `json:"subpathId"`
	Kind             LevelKind `json:"kind"`
	Order            int       `json:"order"`
	Title            string    `json:"title"`
	Subtitle         string    `json:"subtitle,omitempty"`
	Description      string    `json:"description,omitempty"`
	EstimatedMinutes *int      `json:"estimatedMinutes,omitempty"`
	Points           int       `json:"points"`
	IsPublished      bool      `json:"isPublished"`
	Problems         []Problem `json:"problems"`
}

// Problem is a single exercise
type Problem struct {
	ID         string          `json:"id"`
	LevelID    string          `json:"levelId"`
	Title      string          `json:"title"`
	Statement  string          `json:"statement"`
	Solution   string          `json:"solution,omitempty"`
	Difficulty int             `json:"difficulty"`
	Tags       []string        `json:"tags"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	// IsArchived marks a problem dropped from the catalog that learners
	// have attempted. It is kept for their history but no longer served.
	IsArchived bool   `json:"isArchived,omitempty"`
	Hints      []Hint `json:"hints,omitempty"`
}

// Hint is an ordered nudge attached to a problem
type Hint struct {
	ID        string `json:"id"`
	ProblemID string `json:"problemId"`
	Order     int    `json:"order"`
	Content   string `json:"content"`
	IsMajor   bool   `json:"isMajor"`
}

// ProblemDetail is a problem together with where it sits in the catalog
type ProblemDetail struct {
	Problem
	Level struct {
		ID     string    `json:"id"`
		Title  string    `json:"title"`
		Kind   LevelKind `json:"kind"`
		Points int       `json:"points"`
	} `json:"level"`
	Subpath struct {
		ID    string `json:"id"`
		Stage Stage  `json:"stage"`
		Title string `json:"title"`
	} `json:"subpath"`
	Path struct {
		ID    string `json:"id"`
		Slug  string `json:"slug"`
		Title string `json:"title"`
	} `json:"path"`
}

// ProblemIDs returns every problem id in the catalog, in catalog order
func ProblemIDs(paths []Path) []string {
	var ids []string
	for _, p := range paths {
		for _, sp := range p.Subpaths {
			for _, l := range sp.Levels {
				for _, pr := range l.Problems {
					ids = append(ids, pr.ID)
				}
			}
		}
	}
	return ids
}
