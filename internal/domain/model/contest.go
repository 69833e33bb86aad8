package model

import "time"

type ContestRuleType string

const (
	RuleTypeACM ContestRuleType = "ACM"
	RuleTypeOI  ContestRuleType = "OI"
)

type ContestStatus string

const (
	ContestNotStarted ContestStatus = "NotStarted"
	ContestRunning    ContestStatus = "Running"
	ContestEnded      ContestStatus = "Ended"
)

type Contest struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	RuleType    ContestRuleType `json:"rule_type"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	CreatedByID *string         `json:"created_by_id,omitempty"`
	Visible     bool            `json:"visible"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StatusAt derives the contest status from its time bounds. Status is always
// computed on read, never stored.
func (c *Contest) StatusAt(now time.Time) ContestStatus {
	if now.Before(c.StartTime) {
		return ContestNotStarted
	}
	if now.Before(c.EndTime) {
		return ContestRunning
	}
	return ContestEnded
}

// ProblemProgress tracks one user's standing on one problem within an ACM
// contest. Once Accepted flips to true the record is frozen; later
// submissions to the problem no longer change it.
type ProblemProgress struct {
	Accepted     bool `json:"accepted"`
	ACTime       int  `json:"ac_time"` // seconds from contest start to acceptance
	FailedNumber int  `json:"failed_number"`
	IsFirstAC    bool `json:"is_first_ac"`
}

// ACMContestRank is one (user, contest) row under ACM rules.
// TotalTime = sum over accepted problems of ac_time + failed_number * 20min.
type ACMContestRank struct {
	UserID           string                     `json:"user_id"`
	ContestID        string                     `json:"contest_id"`
	SubmissionNumber int                        `json:"submission_number"`
	AcceptedNumber   int                        `json:"accepted_number"`
	TotalTime        int                        `json:"total_time"` // seconds
	SubmissionInfo   map[string]ProblemProgress `json:"submission_info"`

	Username *string `json:"username,omitempty"` // For display
}

// OIContestRank is one (user, contest) row under OI rules. TotalScore always
// equals the sum of the per-problem best scores in SubmissionInfo.
type OIContestRank struct {
	UserID           string         `json:"user_id"`
	ContestID        string         `json:"contest_id"`
	SubmissionNumber int            `json:"submission_number"`
	TotalScore       int            `json:"total_score"`
	SubmissionInfo   map[string]int `json:"submission_info"`

	Username *string `json:"username,omitempty"` // For display
}
