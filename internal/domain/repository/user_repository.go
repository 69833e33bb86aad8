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

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)

	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	// ApplyJudgedSubmission bumps the profile counters for one judged
	// submission under a row lock, so the increments and the
	// first-acceptance decision taken by the caller stay atomic with
	// respect to concurrently judging submissions.
	ApplyJudgedSubmission(ctx context.Context, tx *sql.Tx, userID string, accepted, firstAccept bool) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Create begin: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO users (id, username, email, hashed_password, role) VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, query, user.ID, user.Username, user.Email, user.HashedPassword, user.Role); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("username or email already taken: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}

	// Profile row is created together with the user so the aggregate
	// updaters can always assume it exists.
	if _, err := tx.ExecContext(ctx, `INSERT INTO user_profiles (user_id) VALUES ($1)`, user.ID); err != nil {
		return fmt.Errorf("pgUserRepository.Create profile: %w", err)
	}

	return tx.Commit()
}

func (r *pgUserRepository) findBy(ctx context.Context, field, value string) (*model.User, error) {
	query := `SELECT id, username, email, hashed_password, role, created_at, updated_at
	          FROM users WHERE ` + field + ` = $1`
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.findBy %s: %w", field, err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findBy(ctx, "email", email)
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findBy(ctx, "username", username)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findBy(ctx, "id", id)
}

func (r *pgUserRepository) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	query := `SELECT user_id, total_submission_number, total_accepted_number, solved_problem_number
	          FROM user_profiles WHERE user_id = $1`
	profile := &model.UserProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID, &profile.TotalSubmissionNumber, &profile.TotalAcceptedNumber, &profile.SolvedProblemNumber,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.GetProfile: %w", err)
	}
	return profile, nil
}

func (r *pgUserRepository) ApplyJudgedSubmission(ctx context.Context, tx *sql.Tx, userID string, accepted, firstAccept bool) error {
	query := `UPDATE user_profiles
	          SET total_submission_number = total_submission_number + 1,
	              total_accepted_number = total_accepted_number + CASE WHEN $1 THEN 1 ELSE 0 END,
	              solved_problem_number = solved_problem_number + CASE WHEN $2 THEN 1 ELSE 0 END
	          WHERE user_id = $3`

	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, accepted, firstAccept, userID)
	} else {
		res, err = r.db.ExecContext(ctx, query, accepted, firstAccept, userID)
	}
	if err != nil {
		return fmt.Errorf("pgUserRepository.ApplyJudgedSubmission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgUserRepository.ApplyJudgedSubmission rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile for user %s not found: %w", userID, common.ErrNotFound)
	}
	return nil
}
