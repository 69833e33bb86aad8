package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"codearena/internal/app/worker"
	"codearena/internal/common"
	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"
	"codearena/internal/judge"
	"codearena/internal/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type SubmissionService struct {
	db             *sql.DB
	rdb            *redis.Client
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	contestRepo    repository.ContestRepository
}

func NewSubmissionService(
	db *sql.DB,
	rdb *redis.Client,
	submissionRepo repository.SubmissionRepository,
	problemRepo repository.ProblemRepository,
	contestRepo repository.ContestRepository,
) *SubmissionService {
	return &SubmissionService{
		db:             db,
		rdb:            rdb,
		submissionRepo: submissionRepo,
		problemRepo:    problemRepo,
		contestRepo:    contestRepo,
	}
}

type CreateSubmissionRequest struct {
	ProblemID string  `json:"problem_id"`
	ContestID *string `json:"contest_id,omitempty"`
	Language  string  `json:"language"`
	Code      string  `json:"code"`
}

func (s *SubmissionService) CreateSubmission(ctx context.Context, userID, clientIP string, req CreateSubmissionRequest) (*model.Submission, error) {
	if req.ProblemID == "" || req.Code == "" {
		return nil, fmt.Errorf("problem_id and code are required: %w", common.ErrBadRequest)
	}
	// Reject unsupported languages at intake, before anything is persisted.
	if _, err := judge.LanguageConfigFor(req.Language); err != nil {
		return nil, fmt.Errorf("unsupported language %q: %w", req.Language, common.ErrBadRequest)
	}

	if req.ContestID != nil {
		if _, err := s.problemRepo.FindContestProblem(ctx, req.ProblemID, *req.ContestID); err != nil {
			return nil, fmt.Errorf("failed to resolve contest problem: %w", err)
		}
		contest, err := s.contestRepo.FindContestByID(ctx, *req.ContestID)
		if err != nil {
			return nil, fmt.Errorf("failed to load contest: %w", err)
		}
		if contest.StatusAt(time.Now()) != model.ContestRunning {
			return nil, fmt.Errorf("contest is not running: %w", common.ErrForbidden)
		}
	} else {
		if _, err := s.problemRepo.FindProblemByID(ctx, req.ProblemID); err != nil {
			return nil, fmt.Errorf("failed to resolve problem: %w", err)
		}
	}

	sub := &model.Submission{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProblemID: req.ProblemID,
		ContestID: req.ContestID,
		Code:      req.Code,
		Language:  req.Language,
		Verdict:   model.VerdictPending,
	}
	if clientIP != "" {
		sub.IP = &clientIP
	}

	if err := s.submissionRepo.CreateSubmission(ctx, nil, sub); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	payload, err := json.Marshal(worker.JudgePayload{SubmissionID: sub.ID, ProblemID: sub.ProblemID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal judge payload: %w", err)
	}
	if err := s.rdb.LPush(ctx, config.AppConfig.JudgeQueueName, payload).Err(); err != nil {
		// The row exists with a PENDING verdict; a re-enqueue sweep can
		// pick it up later.
		return nil, fmt.Errorf("failed to enqueue submission %s for judging: %w", sub.ID, err)
	}

	return sub, nil
}

func (s *SubmissionService) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	return s.submissionRepo.GetSubmissionByID(ctx, id)
}

func (s *SubmissionService) ListMySubmissions(ctx context.Context, userID string, limit, offset int) ([]model.Submission, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.submissionRepo.ListByUser(ctx, userID, limit, offset)
}
