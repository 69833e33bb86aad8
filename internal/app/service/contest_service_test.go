package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"codearena/internal/common"
	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"
)

type fakeContestRepo struct {
	repository.ContestRepository
	contest  *model.Contest
	acmRanks []*model.ACMContestRank
	oiRanks  []*model.OIContestRank
}

func (f *fakeContestRepo) FindContestByID(ctx context.Context, id string) (*model.Contest, error) {
	if f.contest == nil || f.contest.ID != id {
		return nil, common.ErrNotFound
	}
	return f.contest, nil
}

func (f *fakeContestRepo) CreateACMRank(ctx context.Context, rank *model.ACMContestRank) error {
	f.acmRanks = append(f.acmRanks, rank)
	return nil
}

func (f *fakeContestRepo) CreateOIRank(ctx context.Context, rank *model.OIContestRank) error {
	f.oiRanks = append(f.oiRanks, rank)
	return nil
}

func runningContest(rule model.ContestRuleType) *model.Contest {
	now := time.Now()
	return &model.Contest{
		ID:        "c1",
		RuleType:  rule,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	}
}

func TestRegisterCreatesACMRank(t *testing.T) {
	repo := &fakeContestRepo{contest: runningContest(model.RuleTypeACM)}
	svc := NewContestService(repo)

	if err := svc.Register(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(repo.acmRanks) != 1 || len(repo.oiRanks) != 0 {
		t.Fatalf("rank rows = (%d acm, %d oi), want (1, 0)", len(repo.acmRanks), len(repo.oiRanks))
	}
	rank := repo.acmRanks[0]
	if rank.UserID != "u1" || rank.ContestID != "c1" {
		t.Errorf("unexpected rank row: %+v", rank)
	}
	if rank.SubmissionNumber != 0 || rank.AcceptedNumber != 0 || rank.TotalTime != 0 {
		t.Errorf("rank row must start zeroed: %+v", rank)
	}
}

func TestRegisterCreatesOIRank(t *testing.T) {
	repo := &fakeContestRepo{contest: runningContest(model.RuleTypeOI)}
	svc := NewContestService(repo)

	if err := svc.Register(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(repo.oiRanks) != 1 || len(repo.acmRanks) != 0 {
		t.Fatalf("rank rows = (%d acm, %d oi), want (0, 1)", len(repo.acmRanks), len(repo.oiRanks))
	}
}

func TestRegisterBeforeStartIsAllowed(t *testing.T) {
	contest := runningContest(model.RuleTypeACM)
	contest.StartTime = time.Now().Add(time.Hour)
	contest.EndTime = time.Now().Add(2 * time.Hour)
	repo := &fakeContestRepo{contest: contest}
	svc := NewContestService(repo)

	if err := svc.Register(context.Background(), "u1", "c1"); err != nil {
		t.Errorf("Register before start: %v", err)
	}
}

func TestRegisterAfterEndIsRejected(t *testing.T) {
	contest := runningContest(model.RuleTypeACM)
	contest.StartTime = time.Now().Add(-2 * time.Hour)
	contest.EndTime = time.Now().Add(-time.Hour)
	repo := &fakeContestRepo{contest: contest}
	svc := NewContestService(repo)

	err := svc.Register(context.Background(), "u1", "c1")
	if !errors.Is(err, common.ErrForbidden) {
		t.Errorf("Register after end: err = %v, want ErrForbidden", err)
	}
	if len(repo.acmRanks) != 0 {
		t.Error("no rank row may be created after the contest ended")
	}
}

func TestCreateContestValidation(t *testing.T) {
	svc := NewContestService(&fakeContestRepo{})
	now := time.Now()

	cases := []struct {
		name string
		req  CreateContestRequest
	}{
		{"missing title", CreateContestRequest{RuleType: model.RuleTypeACM, StartTime: now, EndTime: now.Add(time.Hour)}},
		{"bad rule type", CreateContestRequest{Title: "t", RuleType: "IOI", StartTime: now, EndTime: now.Add(time.Hour)}},
		{"end before start", CreateContestRequest{Title: "t", RuleType: model.RuleTypeACM, StartTime: now, EndTime: now.Add(-time.Hour)}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateContest(context.Background(), "admin", tc.req); !errors.Is(err, common.ErrBadRequest) {
			t.Errorf("%s: err = %v, want ErrBadRequest", tc.name, err)
		}
	}
}
