package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserProfile carries the per-user aggregate counters maintained by the
// judging pipeline. SolvedProblemNumber counts distinct problems and only
// moves on a user's first acceptance for a given problem.
type UserProfile struct {
	UserID                string `json:"user_id"`
	TotalSubmissionNumber int    `json:"total_submission_number"`
	TotalAcceptedNumber   int    `json:"total_accepted_number"`
	SolvedProblemNumber   int    `json:"solved_problem_number"`
}
