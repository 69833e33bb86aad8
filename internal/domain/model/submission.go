package model

import "time"

// Submission is one attempted solution. It is created Pending by the intake
// boundary and mutated exactly once per judging attempt by the dispatcher.
type Submission struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProblemID string    `json:"problem_id"`
	ContestID *string   `json:"contest_id,omitempty"`
	Code      string    `json:"code"`
	Language  string    `json:"language"`
	Verdict   Verdict   `json:"verdict"`
	IP        *string   `json:"ip,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Per-test-case outcomes, sorted by ascending test case index.
	// Write-once: populated by the dispatcher and never mutated afterwards.
	CaseResults []TestCaseResult `json:"case_results,omitempty"`

	Statistics StatisticInfo `json:"statistics"`

	UserUsername *string `json:"user_username,omitempty"` // For display
	ProblemTitle *string `json:"problem_title,omitempty"` // For display
}

// TestCaseResult is the outcome of a single test case, as reported by the
// judge server.
type TestCaseResult struct {
	TestCase int     `json:"test_case"`
	Verdict  Verdict `json:"verdict"`
	CPUTime  int     `json:"cpu_time"` // ms
	Memory   int     `json:"memory"`   // bytes
	Output   *string `json:"output,omitempty"`
}

// StatisticInfo holds the aggregate figures shown in submission listings so
// the full case result list never has to be re-scanned.
type StatisticInfo struct {
	TimeCost   int     `json:"time_cost"`   // max cpu_time across cases, ms
	MemoryCost int     `json:"memory_cost"` // max memory across cases, bytes
	ErrInfo    *string `json:"err_info,omitempty"`
	Score      int     `json:"score"` // OI mode only
}
