package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"codearena/internal/common"
	"codearena/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ContestRepository interface {
	CreateContest(ctx context.Context, contest *model.Contest) error
	FindContestByID(ctx context.Context, id string) (*model.Contest, error)

	// Registration creates the initial rank row for the contest's rule
	// type. The rank updaters assume the row exists at judging time.
	CreateACMRank(ctx context.Context, rank *model.ACMContestRank) error
	CreateOIRank(ctx context.Context, rank *model.OIContestRank) error

	// The ForUpdate getters take a row-level exclusive lock so rank
	// mutation is serialized per (user, contest) without any global lock.
	GetACMRankForUpdate(ctx context.Context, tx *sql.Tx, userID, contestID string) (*model.ACMContestRank, error)
	SaveACMRank(ctx context.Context, tx *sql.Tx, rank *model.ACMContestRank) error
	GetOIRankForUpdate(ctx context.Context, tx *sql.Tx, userID, contestID string) (*model.OIContestRank, error)
	SaveOIRank(ctx context.Context, tx *sql.Tx, rank *model.OIContestRank) error

	// Display ordering: ACM by accepted desc, total_time asc; OI by
	// total_score desc.
	ListACMRanks(ctx context.Context, contestID string, limit, offset int) ([]model.ACMContestRank, error)
	ListOIRanks(ctx context.Context, contestID string, limit, offset int) ([]model.OIContestRank, error)
}

type pgContestRepository struct {
	db *sql.DB
}

func NewPgContestRepository(db *sql.DB) ContestRepository {
	return &pgContestRepository{db: db}
}

func (r *pgContestRepository) CreateContest(ctx context.Context, c *model.Contest) error {
	query := `INSERT INTO contests (id, title, description, rule_type, start_time, end_time, created_by, visible)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.Title, c.Description, c.RuleType, c.StartTime, c.EndTime, c.CreatedByID, c.Visible); err != nil {
		return fmt.Errorf("pgContestRepository.CreateContest: %w", err)
	}
	return nil
}

func (r *pgContestRepository) FindContestByID(ctx context.Context, id string) (*model.Contest, error) {
	query := `SELECT id, title, description, rule_type, start_time, end_time, created_by, visible, created_at, updated_at
	          FROM contests WHERE id = $1`
	c := &model.Contest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Title, &c.Description, &c.RuleType, &c.StartTime, &c.EndTime, &c.CreatedByID, &c.Visible, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgContestRepository.FindContestByID: %w", err)
	}
	return c, nil
}

func (r *pgContestRepository) CreateACMRank(ctx context.Context, rank *model.ACMContestRank) error {
	info, err := json.Marshal(rank.SubmissionInfo)
	if err != nil {
		return fmt.Errorf("pgContestRepository.CreateACMRank marshal: %w", err)
	}
	query := `INSERT INTO acm_contest_ranks (user_id, contest_id, submission_number, accepted_number, total_time, submission_info)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, rank.UserID, rank.ContestID, rank.SubmissionNumber, rank.AcceptedNumber, rank.TotalTime, info); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("already registered for contest: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgContestRepository.CreateACMRank: %w", err)
	}
	return nil
}

func (r *pgContestRepository) CreateOIRank(ctx context.Context, rank *model.OIContestRank) error {
	info, err := json.Marshal(rank.SubmissionInfo)
	if err != nil {
		return fmt.Errorf("pgContestRepository.CreateOIRank marshal: %w", err)
	}
	query := `INSERT INTO oi_contest_ranks (user_id, contest_id, submission_number, total_score, submission_info)
	          VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, rank.UserID, rank.ContestID, rank.SubmissionNumber, rank.TotalScore, info); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("already registered for contest: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgContestRepository.CreateOIRank: %w", err)
	}
	return nil
}

func (r *pgContestRepository) GetACMRankForUpdate(ctx context.Context, tx *sql.Tx, userID, contestID string) (*model.ACMContestRank, error) {
	query := `SELECT user_id, contest_id, submission_number, accepted_number, total_time, submission_info
	          FROM acm_contest_ranks WHERE user_id = $1 AND contest_id = $2 FOR UPDATE`
	rank := &model.ACMContestRank{}
	var info []byte
	err := tx.QueryRowContext(ctx, query, userID, contestID).Scan(
		&rank.UserID, &rank.ContestID, &rank.SubmissionNumber, &rank.AcceptedNumber, &rank.TotalTime, &info,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgContestRepository.GetACMRankForUpdate: %w", err)
	}
	rank.SubmissionInfo = map[string]model.ProblemProgress{}
	if len(info) > 0 {
		if err := json.Unmarshal(info, &rank.SubmissionInfo); err != nil {
			return nil, fmt.Errorf("pgContestRepository.GetACMRankForUpdate unmarshal: %w", err)
		}
	}
	return rank, nil
}

func (r *pgContestRepository) SaveACMRank(ctx context.Context, tx *sql.Tx, rank *model.ACMContestRank) error {
	info, err := json.Marshal(rank.SubmissionInfo)
	if err != nil {
		return fmt.Errorf("pgContestRepository.SaveACMRank marshal: %w", err)
	}
	query := `UPDATE acm_contest_ranks
	          SET submission_number = $1, accepted_number = $2, total_time = $3, submission_info = $4
	          WHERE user_id = $5 AND contest_id = $6`
	if _, err := tx.ExecContext(ctx, query, rank.SubmissionNumber, rank.AcceptedNumber, rank.TotalTime, info, rank.UserID, rank.ContestID); err != nil {
		return fmt.Errorf("pgContestRepository.SaveACMRank: %w", err)
	}
	return nil
}

func (r *pgContestRepository) GetOIRankForUpdate(ctx context.Context, tx *sql.Tx, userID, contestID string) (*model.OIContestRank, error) {
	query := `SELECT user_id, contest_id, submission_number, total_score, submission_info
	          FROM oi_contest_ranks WHERE user_id = $1 AND contest_id = $2 FOR UPDATE`
	rank := &model.OIContestRank{}
	var info []byte
	err := tx.QueryRowContext(ctx, query, userID, contestID).Scan(
		&rank.UserID, &rank.ContestID, &rank.SubmissionNumber, &rank.TotalScore, &info,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgContestRepository.GetOIRankForUpdate: %w", err)
	}
	rank.SubmissionInfo = map[string]int{}
	if len(info) > 0 {
		if err := json.Unmarshal(info, &rank.SubmissionInfo); err != nil {
			return nil, fmt.Errorf("pgContestRepository.GetOIRankForUpdate unmarshal: %w", err)
		}
	}
	return rank, nil
}

func (r *pgContestRepository) SaveOIRank(ctx context.Context, tx *sql.Tx, rank *model.OIContestRank) error {
	info, err := json.Marshal(rank.SubmissionInfo)
	if err != nil {
		return fmt.Errorf("pgContestRepository.SaveOIRank marshal: %w", err)
	}
	query := `UPDATE oi_contest_ranks
	          SET submission_number = $1, total_score = $2, submission_info = $3
	          WHERE user_id = $4 AND contest_id = $5`
	if _, err := tx.ExecContext(ctx, query, rank.SubmissionNumber, rank.TotalScore, info, rank.UserID, rank.ContestID); err != nil {
		return fmt.Errorf("pgContestRepository.SaveOIRank: %w", err)
	}
	return nil
}

func (r *pgContestRepository) ListACMRanks(ctx context.Context, contestID string, limit, offset int) ([]model.ACMContestRank, error) {
	query := `
        SELECT r.user_id, r.contest_id, r.submission_number, r.accepted_number, r.total_time, r.submission_info, u.username
        FROM acm_contest_ranks r
        JOIN users u ON r.user_id = u.id
        WHERE r.contest_id = $1
        ORDER BY r.accepted_number DESC, r.total_time ASC
        LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, contestID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.ListACMRanks query: %w", err)
	}
	defer rows.Close()

	ranks := []model.ACMContestRank{}
	for rows.Next() {
		var rank model.ACMContestRank
		var info []byte
		if err := rows.Scan(&rank.UserID, &rank.ContestID, &rank.SubmissionNumber, &rank.AcceptedNumber, &rank.TotalTime, &info, &rank.Username); err != nil {
			return nil, fmt.Errorf("pgContestRepository.ListACMRanks scan: %w", err)
		}
		rank.SubmissionInfo = map[string]model.ProblemProgress{}
		if len(info) > 0 {
			if err := json.Unmarshal(info, &rank.SubmissionInfo); err != nil {
				return nil, fmt.Errorf("pgContestRepository.ListACMRanks unmarshal: %w", err)
			}
		}
		ranks = append(ranks, rank)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgContestRepository.ListACMRanks rows.Err: %w", err)
	}
	return ranks, nil
}

func (r *pgContestRepository) ListOIRanks(ctx context.Context, contestID string, limit, offset int) ([]model.OIContestRank, error) {
	query := `
        SELECT r.user_id, r.contest_id, r.submission_number, r.total_score, r.submission_info, u.username
        FROM oi_contest_ranks r
        JOIN users u ON r.user_id = u.id
        WHERE r.contest_id = $1
        ORDER BY r.total_score DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, contestID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.ListOIRanks query: %w", err)
	}
	defer rows.Close()

	ranks := []model.OIContestRank{}
	for rows.Next() {
		var rank model.OIContestRank
		var info []byte
		if err := rows.Scan(&rank.UserID, &rank.ContestID, &rank.SubmissionNumber, &rank.TotalScore, &info, &rank.Username); err != nil {
			return nil, fmt.Errorf("pgContestRepository.ListOIRanks scan: %w", err)
		}
		rank.SubmissionInfo = map[string]int{}
		if len(info) > 0 {
			if err := json.Unmarshal(info, &rank.SubmissionInfo); err != nil {
				return nil, fmt.Errorf("pgContestRepository.ListOIRanks unmarshal: %w", err)
			}
		}
		ranks = append(ranks, rank)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgContestRepository.ListOIRanks rows.Err: %w", err)
	}
	return ranks, nil
}
