package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"codearena/internal/common"
	"codearena/internal/domain/model"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	// MarkJudging updates only the verdict field so concurrent readers see
	// the status flip without waiting for the judging round-trip.
	MarkJudging(ctx context.Context, id string) error
	// FinalizeSubmission persists the terminal verdict, statistics and the
	// write-once case result list. It refuses to overwrite a submission
	// that already left the Pending/Judging states.
	FinalizeSubmission(ctx context.Context, sub *model.Submission) error
	// MarkProblemSolved records the (user, problem) pair in the solved set.
	// Returns true iff this is the user's first acceptance for the problem;
	// the unique index on the pair makes the check-and-insert atomic.
	MarkProblemSolved(ctx context.Context, tx *sql.Tx, userID, problemID, submissionID string) (bool, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Submission, int, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	query := `INSERT INTO submissions (id, user_id, problem_id, contest_id, code, language, verdict, ip)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, sub.ID, sub.UserID, sub.ProblemID, sub.ContestID, sub.Code, sub.Language, sub.Verdict, sub.IP)
	} else {
		_, err = r.db.ExecContext(ctx, query, sub.ID, sub.UserID, sub.ProblemID, sub.ContestID, sub.Code, sub.Language, sub.Verdict, sub.IP)
	}
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `
        SELECT s.id, s.user_id, s.problem_id, s.contest_id, s.code, s.language, s.verdict,
               s.ip, s.case_results, s.statistic_info, s.created_at, s.updated_at,
               u.username, p.title
        FROM submissions s
        JOIN users u ON s.user_id = u.id
        JOIN problems p ON s.problem_id = p.id
        WHERE s.id = $1`

	sub := &model.Submission{}
	var caseResults, statisticInfo []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID, &sub.UserID, &sub.ProblemID, &sub.ContestID, &sub.Code, &sub.Language, &sub.Verdict,
		&sub.IP, &caseResults, &statisticInfo, &sub.CreatedAt, &sub.UpdatedAt,
		&sub.UserUsername, &sub.ProblemTitle,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}

	if len(caseResults) > 0 {
		if err := json.Unmarshal(caseResults, &sub.CaseResults); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID unmarshal case results: %w", err)
		}
	}
	if len(statisticInfo) > 0 {
		if err := json.Unmarshal(statisticInfo, &sub.Statistics); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID unmarshal statistics: %w", err)
		}
	}
	return sub, nil
}

func (r *pgSubmissionRepository) MarkJudging(ctx context.Context, id string) error {
	query := `UPDATE submissions SET verdict = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, model.VerdictJudging, id); err != nil {
		return fmt.Errorf("pgSubmissionRepository.MarkJudging: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) FinalizeSubmission(ctx context.Context, sub *model.Submission) error {
	caseResults, err := json.Marshal(sub.CaseResults)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.FinalizeSubmission marshal case results: %w", err)
	}
	statisticInfo, err := json.Marshal(sub.Statistics)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.FinalizeSubmission marshal statistics: %w", err)
	}

	query := `UPDATE submissions
	          SET verdict = $1, case_results = $2, statistic_info = $3, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4 AND verdict IN ($5, $6)`
	res, err := r.db.ExecContext(ctx, query, sub.Verdict, caseResults, statisticInfo, sub.ID,
		model.VerdictPending, model.VerdictJudging)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.FinalizeSubmission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.FinalizeSubmission rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("submission %s already finalized: %w", sub.ID, common.ErrConflict)
	}
	return nil
}

func (r *pgSubmissionRepository) MarkProblemSolved(ctx context.Context, tx *sql.Tx, userID, problemID, submissionID string) (bool, error) {
	query := `INSERT INTO user_solved_problems (user_id, problem_id, submission_id)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, problem_id) DO NOTHING`

	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, userID, problemID, submissionID)
	} else {
		res, err = r.db.ExecContext(ctx, query, userID, problemID, submissionID)
	}
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.MarkProblemSolved: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.MarkProblemSolved rows affected: %w", err)
	}
	return affected == 1, nil
}

func (r *pgSubmissionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Submission, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.ListByUser count: %w", err)
	}

	query := `
        SELECT s.id, s.user_id, s.problem_id, s.contest_id, s.language, s.verdict,
               s.statistic_info, s.created_at, s.updated_at, p.title
        FROM submissions s
        JOIN problems p ON s.problem_id = p.id
        WHERE s.user_id = $1
        ORDER BY s.created_at DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.ListByUser query: %w", err)
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		var statisticInfo []byte
		if err := rows.Scan(&s.ID, &s.UserID, &s.ProblemID, &s.ContestID, &s.Language, &s.Verdict,
			&statisticInfo, &s.CreatedAt, &s.UpdatedAt, &s.ProblemTitle); err != nil {
			return nil, 0, fmt.Errorf("pgSubmissionRepository.ListByUser scan: %w", err)
		}
		if len(statisticInfo) > 0 {
			if err := json.Unmarshal(statisticInfo, &s.Statistics); err != nil {
				return nil, 0, fmt.Errorf("pgSubmissionRepository.ListByUser unmarshal statistics: %w", err)
			}
		}
		submissions = append(submissions, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgSubmissionRepository.ListByUser rows.Err: %w", err)
	}
	return submissions, total, nil
}
