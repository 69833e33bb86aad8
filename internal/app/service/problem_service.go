package service

import (
	"context"
	"database/sql"
	"fmt"

	"codearena/internal/common"
	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
	db          *sql.DB
}

func NewProblemService(problemRepo repository.ProblemRepository, db *sql.DB) *ProblemService {
	return &ProblemService{problemRepo: problemRepo, db: db}
}

type CreateProblemRequest struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Difficulty  model.ProblemDifficulty `json:"difficulty"`
	ContestID   *string                 `json:"contest_id,omitempty"`
	TestCaseID  string                  `json:"test_case_id"`

	StandardTimeLimit   *int `json:"standard_time_limit,omitempty"`
	StandardMemoryLimit *int `json:"standard_memory_limit,omitempty"`
	OtherTimeLimit      *int `json:"other_time_limit,omitempty"`
	OtherMemoryLimit    *int `json:"other_memory_limit,omitempty"`

	SPJ         bool    `json:"spj"`
	SPJLanguage *string `json:"spj_language,omitempty"`
	SPJVersion  *string `json:"spj_version,omitempty"`
	SPJSrc      *string `json:"spj_src,omitempty"`
}

func intOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}

func (s *ProblemService) CreateProblem(ctx context.Context, createdBy string, req CreateProblemRequest) (*model.Problem, error) {
	if req.Title == "" || req.TestCaseID == "" {
		return nil, fmt.Errorf("title and test_case_id are required: %w", common.ErrBadRequest)
	}
	if req.SPJ && (req.SPJLanguage == nil || req.SPJSrc == nil) {
		return nil, fmt.Errorf("spj problems need spj_language and spj_src: %w", common.ErrBadRequest)
	}

	problem := &model.Problem{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		Difficulty:  req.Difficulty,
		ContestID:   req.ContestID,
		TestCaseID:  req.TestCaseID,

		StandardTimeLimit:   intOr(req.StandardTimeLimit, 1000),
		StandardMemoryLimit: intOr(req.StandardMemoryLimit, 256),
		OtherTimeLimit:      intOr(req.OtherTimeLimit, 2000),
		OtherMemoryLimit:    intOr(req.OtherMemoryLimit, 512),

		SPJ:         req.SPJ,
		SPJLanguage: req.SPJLanguage,
		SPJVersion:  req.SPJVersion,
		SPJSrc:      req.SPJSrc,

		CreatedByID: &createdBy,
	}

	if err := s.problemRepo.CreateProblem(ctx, nil, problem); err != nil {
		return nil, fmt.Errorf("failed to create problem: %w", err)
	}
	return problem, nil
}

func (s *ProblemService) GetProblem(ctx context.Context, id string) (*model.Problem, error) {
	return s.problemRepo.FindProblemByID(ctx, id)
}

func (s *ProblemService) ListProblems(ctx context.Context, limit, offset int) ([]model.Problem, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.problemRepo.ListProblems(ctx, limit, offset)
}
