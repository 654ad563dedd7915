package models

import "time"

// Outcome is the result a learner reports for an attempt
type Outcome string

const (
	OutcomeCorrect   Outcome = "CORRECT"
	OutcomeIncorrect Outcome = "INCORRECT"
	OutcomePartial   Outcome = "PARTIAL"
	OutcomeSkipped   Outcome = "SKIPPED"
)

// Valid reports whether o is a known outcome
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeCorrect, OutcomeIncorrect, OutcomePartial, OutcomeSkipped:
		return true
	}
	return false
}

// Attempt is one submission by a learner against a problem
type Attempt struct {
	ID           string    `json:"id"`
	LearnerID    string    `json:"learnerId"`
	ProblemID    string    `json:"problemId"`
	Outcome      Outcome   `json:"outcome"`
	Approach     string    `json:"approach,omitempty"`
	Reflection   string    `json:"reflection,omitempty"`
	HintsUsed    int       `json:"hintsUsed"`
	TimeSpentSec *int      `json:"timeSpentSec,omitempty"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// ProgressStatus is a learner's standing on a single problem or level
type ProgressStatus string

const (
	ProgressAvailable  ProgressStatus = "AVAILABLE"
	ProgressInProgress ProgressStatus = "IN_PROGRESS"
	ProgressMastered   ProgressStatus = "MASTERED"
)

// LevelProgress tracks a learner's interaction with a level
type LevelProgress struct {
	LearnerID       string         `json:"learnerId"`
	LevelID         string         `json:"levelId"`
	Status          ProgressStatus `json:"status"`
	MasteryScore    int            `json:"masteryScore"`
	AttemptsCount   int            `json:"attemptsCount"`
	HintsUsed       int            `json:"hintsUsed"`
	UnlockedAt      time.Time      `json:"unlockedAt"`
	LastInteraction time.Time      `json:"lastInteraction"`
}

// AttemptSummary is a learner's recent history on one problem
type AttemptSummary struct {
	ProblemID       string         `json:"problemId"`
	Status          ProgressStatus `json:"status"`
	MasteryScore    int            `json:"masteryScore"`
	AttemptsCount   int            `json:"attemptsCount"`
	HintsUsed       int            `json:"hintsUsed"`
	LastInteraction *time.Time     `json:"lastInteraction,omitempty"`
	Attempts        []Attempt      `json:"attempts"`
}

// Learner is the authenticated caller
type Learner struct {
	ID    string
	Email string
}
