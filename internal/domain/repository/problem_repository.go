package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codearena/internal/common"
	"codearena/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	FindProblemByID(ctx context.Context, id string) (*model.Problem, error)
	// FindContestProblem resolves a problem scoped to a contest; a contest
	// problem's test bundle may differ from the catalog entry of the same
	// title.
	FindContestProblem(ctx context.Context, id, contestID string) (*model.Problem, error)
	ListProblems(ctx context.Context, limit, offset int) ([]model.Problem, int, error)
	// IncrementSubmissionCounters bumps total_submission_number and, when
	// accepted, solved_submission_number, returning the new solved count.
	// Increment and read-back are a single statement so first-to-solve
	// checks are race-free.
	IncrementSubmissionCounters(ctx context.Context, tx *sql.Tx, problemID string, accepted bool) (int, error)
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

const problemColumns = `p.id, p.title, p.slug, p.description, p.difficulty, p.contest_id, p.test_case_id,
               p.standard_time_limit, p.standard_memory_limit, p.other_time_limit, p.other_memory_limit,
               p.total_submission_number, p.solved_submission_number,
               p.spj, p.spj_language, p.spj_version, p.spj_src,
               p.created_by, p.created_at, p.updated_at`

func scanProblem(row *sql.Row) (*model.Problem, error) {
	p := &model.Problem{}
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Difficulty, &p.ContestID, &p.TestCaseID,
		&p.StandardTimeLimit, &p.StandardMemoryLimit, &p.OtherTimeLimit, &p.OtherMemoryLimit,
		&p.TotalSubmissionNumber, &p.SolvedSubmissionNumber,
		&p.SPJ, &p.SPJLanguage, &p.SPJVersion, &p.SPJSrc,
		&p.CreatedByID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `INSERT INTO problems (id, title, slug, description, difficulty, contest_id, test_case_id,
	              standard_time_limit, standard_memory_limit, other_time_limit, other_memory_limit,
	              spj, spj_language, spj_version, spj_src, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, p.ID, p.Title, p.Slug, p.Description, p.Difficulty, p.ContestID, p.TestCaseID,
			p.StandardTimeLimit, p.StandardMemoryLimit, p.OtherTimeLimit, p.OtherMemoryLimit,
			p.SPJ, p.SPJLanguage, p.SPJVersion, p.SPJSrc, p.CreatedByID)
	} else {
		_, err = r.db.ExecContext(ctx, query, p.ID, p.Title, p.Slug, p.Description, p.Difficulty, p.ContestID, p.TestCaseID,
			p.StandardTimeLimit, p.StandardMemoryLimit, p.OtherTimeLimit, p.OtherMemoryLimit,
			p.SPJ, p.SPJLanguage, p.SPJVersion, p.SPJSrc, p.CreatedByID)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("problem with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems p WHERE p.id = $1`
	p, err := scanProblem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgProblemRepository.FindProblemByID: %w", err)
	}
	return p, nil
}

func (r *pgProblemRepository) FindContestProblem(ctx context.Context, id, contestID string) (*model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems p WHERE p.id = $1 AND p.contest_id = $2`
	p, err := scanProblem(r.db.QueryRowContext(ctx, query, id, contestID))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("pgProblemRepository.FindContestProblem: %w", err)
	}
	return p, nil
}

func (r *pgProblemRepository) ListProblems(ctx context.Context, limit, offset int) ([]model.Problem, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems WHERE contest_id IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems count: %w", err)
	}

	query := `SELECT ` + problemColumns + ` FROM problems p
	          WHERE p.contest_id IS NULL
	          ORDER BY p.created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems query: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		var p model.Problem
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Slug, &p.Description, &p.Difficulty, &p.ContestID, &p.TestCaseID,
			&p.StandardTimeLimit, &p.StandardMemoryLimit, &p.OtherTimeLimit, &p.OtherMemoryLimit,
			&p.TotalSubmissionNumber, &p.SolvedSubmissionNumber,
			&p.SPJ, &p.SPJLanguage, &p.SPJVersion, &p.SPJSrc,
			&p.CreatedByID, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems scan: %w", err)
		}
		problems = append(problems, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems rows.Err: %w", err)
	}
	return problems, total, nil
}

func (r *pgProblemRepository) IncrementSubmissionCounters(ctx context.Context, tx *sql.Tx, problemID string, accepted bool) (int, error) {
	query := `UPDATE problems
	          SET total_submission_number = total_submission_number + 1,
	              solved_submission_number = solved_submission_number + CASE WHEN $1 THEN 1 ELSE 0 END,
	              updated_at = CURRENT_TIMESTAMP
	          WHERE id = $2
	          RETURNING solved_submission_number`

	var solved int
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, accepted, problemID).Scan(&solved)
	} else {
		err = r.db.QueryRowContext(ctx, query, accepted, problemID).Scan(&solved)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("pgProblemRepository.IncrementSubmissionCounters: %w", err)
	}
	return solved, nil
}
