package service

import (
	"context"
	"fmt"
	"time"

	"codearena/internal/common"
	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"

	"github.com/google/uuid"
)

type ContestService struct {
	contestRepo repository.ContestRepository
}

func NewContestService(contestRepo repository.ContestRepository) *ContestService {
	return &ContestService{contestRepo: contestRepo}
}

type CreateContestRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	RuleType    model.ContestRuleType `json:"rule_type"`
	StartTime   time.Time             `json:"start_time"`
	EndTime     time.Time             `json:"end_time"`
	Visible     bool                  `json:"visible"`
}

func (s *ContestService) CreateContest(ctx context.Context, createdBy string, req CreateContestRequest) (*model.Contest, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("title is required: %w", common.ErrBadRequest)
	}
	if req.RuleType != model.RuleTypeACM && req.RuleType != model.RuleTypeOI {
		return nil, fmt.Errorf("rule_type must be ACM or OI: %w", common.ErrBadRequest)
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, fmt.Errorf("end_time must be after start_time: %w", common.ErrBadRequest)
	}

	contest := &model.Contest{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		RuleType:    req.RuleType,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		CreatedByID: &createdBy,
		Visible:     req.Visible,
	}
	if err := s.contestRepo.CreateContest(ctx, contest); err != nil {
		return nil, fmt.Errorf("failed to create contest: %w", err)
	}
	return contest, nil
}

func (s *ContestService) GetContest(ctx context.Context, id string) (*model.Contest, error) {
	return s.contestRepo.FindContestByID(ctx, id)
}

// Register creates the caller's zero-valued rank row for the contest's rule
// type. Registration stays open while the contest runs but closes once it
// has ended.
func (s *ContestService) Register(ctx context.Context, userID, contestID string) error {
	contest, err := s.contestRepo.FindContestByID(ctx, contestID)
	if err != nil {
		return fmt.Errorf("failed to load contest: %w", err)
	}
	if contest.StatusAt(time.Now()) == model.ContestEnded {
		return fmt.Errorf("contest has ended: %w", common.ErrForbidden)
	}

	switch contest.RuleType {
	case model.RuleTypeOI:
		rank := &model.OIContestRank{
			UserID:         userID,
			ContestID:      contestID,
			SubmissionInfo: map[string]int{},
		}
		if err := s.contestRepo.CreateOIRank(ctx, rank); err != nil {
			return err
		}
	default:
		rank := &model.ACMContestRank{
			UserID:         userID,
			ContestID:      contestID,
			SubmissionInfo: map[string]model.ProblemProgress{},
		}
		if err := s.contestRepo.CreateACMRank(ctx, rank); err != nil {
			return err
		}
	}
	return nil
}

// RankPage carries the rows for one rule type; exactly one slice is set.
type RankPage struct {
	ContestID string                 `json:"contest_id"`
	RuleType  model.ContestRuleType  `json:"rule_type"`
	ACMRanks  []model.ACMContestRank `json:"acm_ranks,omitempty"`
	OIRanks   []model.OIContestRank  `json:"oi_ranks,omitempty"`
}

func (s *ContestService) GetRanks(ctx context.Context, contestID string, limit, offset int) (*RankPage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	contest, err := s.contestRepo.FindContestByID(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contest: %w", err)
	}

	page := &RankPage{ContestID: contestID, RuleType: contest.RuleType}
	if contest.RuleType == model.RuleTypeOI {
		page.OIRanks, err = s.contestRepo.ListOIRanks(ctx, contestID, limit, offset)
	} else {
		page.ACMRanks, err = s.contestRepo.ListACMRanks(ctx, contestID, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list ranks: %w", err)
	}
	return page, nil
}
