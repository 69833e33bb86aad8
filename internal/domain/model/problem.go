package model

import "time"

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

// Problem carries the judging-relevant view of a problem: two-tier resource
// ceilings, the opaque test bundle id resolvable by the judge server, the
// optional contest association, and the two monotonic submission counters.
type Problem struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Difficulty  ProblemDifficulty `json:"difficulty"`
	ContestID   *string           `json:"contest_id,omitempty"`
	TestCaseID  string            `json:"test_case_id"`

	// Limits for C/C++ submissions. ms / MB.
	StandardTimeLimit   int `json:"standard_time_limit"`
	StandardMemoryLimit int `json:"standard_memory_limit"`
	// Limits for every other language.
	OtherTimeLimit   int `json:"other_time_limit"`
	OtherMemoryLimit int `json:"other_memory_limit"`

	// Monotonic, non-decreasing. Solved counts submissions reaching
	// Accepted, not distinct users.
	TotalSubmissionNumber  int `json:"total_submission_number"`
	SolvedSubmissionNumber int `json:"solved_submission_number"`

	// Special judge, when the problem validates output with a custom
	// checker instead of exact comparison.
	SPJ         bool    `json:"spj"`
	SPJLanguage *string `json:"spj_language,omitempty"`
	SPJVersion  *string `json:"spj_version,omitempty"`
	SPJSrc      *string `json:"-"`

	CreatedByID *string   `json:"created_by_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
