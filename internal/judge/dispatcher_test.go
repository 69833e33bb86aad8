package judge

import (
	"context"
	"errors"
	"testing"

	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"
)

type fakeSubmissionRepo struct {
	repository.SubmissionRepository
	sub          *model.Submission
	judgingCalls int
	finalized    *model.Submission
}

func (f *fakeSubmissionRepo) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	if f.sub == nil || f.sub.ID != id {
		return nil, errors.New("not found")
	}
	cp := *f.sub
	return &cp, nil
}

func (f *fakeSubmissionRepo) MarkJudging(ctx context.Context, id string) error {
	f.judgingCalls++
	return nil
}

func (f *fakeSubmissionRepo) FinalizeSubmission(ctx context.Context, sub *model.Submission) error {
	cp := *sub
	f.finalized = &cp
	return nil
}

type fakeProblemRepo struct {
	repository.ProblemRepository
	problem           *model.Problem
	contestLookups    int
	standaloneLookups int
}

func (f *fakeProblemRepo) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	f.standaloneLookups++
	return f.problem, nil
}

func (f *fakeProblemRepo) FindContestProblem(ctx context.Context, id, contestID string) (*model.Problem, error) {
	f.contestLookups++
	return f.problem, nil
}

type fakeContestRepo struct {
	repository.ContestRepository
	contest *model.Contest
}

func (f *fakeContestRepo) FindContestByID(ctx context.Context, id string) (*model.Contest, error) {
	return f.contest, nil
}

type fakeJudgeClient struct {
	lastReq JudgeRequest
	judge   func(req JudgeRequest) ([]CaseOutcome, error)
}

func (f *fakeJudgeClient) Judge(ctx context.Context, req JudgeRequest) ([]CaseOutcome, error) {
	f.lastReq = req
	return f.judge(req)
}

type recordingStats struct {
	applied []*model.Submission
}

func (r *recordingStats) Apply(ctx context.Context, sub *model.Submission, problem *model.Problem, contest *model.Contest) error {
	r.applied = append(r.applied, sub)
	return nil
}

func testProblem() *model.Problem {
	return &model.Problem{
		ID:                  "p1",
		TestCaseID:          "bundle-1",
		StandardTimeLimit:   1000,
		StandardMemoryLimit: 128,
		OtherTimeLimit:      3000,
		OtherMemoryLimit:    512,
	}
}

func testSubmission(language string) *model.Submission {
	return &model.Submission{
		ID:        "s1",
		UserID:    "u1",
		ProblemID: "p1",
		Code:      "int main(){}",
		Language:  language,
		Verdict:   model.VerdictPending,
	}
}

func newTestDispatcher(sub *model.Submission, problem *model.Problem, contest *model.Contest, client JudgeClient) (*Dispatcher, *fakeSubmissionRepo, *fakeProblemRepo, *recordingStats) {
	subs := &fakeSubmissionRepo{sub: sub}
	probs := &fakeProblemRepo{problem: problem}
	contests := &fakeContestRepo{contest: contest}
	stats := &recordingStats{}
	return NewDispatcher(subs, probs, contests, client, stats), subs, probs, stats
}

func TestJudgeAllAccepted(t *testing.T) {
	client := &fakeJudgeClient{judge: func(req JudgeRequest) ([]CaseOutcome, error) {
		return []CaseOutcome{
			{TestCase: "2", Result: 0, CPUTime: 40, Memory: 4096},
			{TestCase: "1", Result: 0, CPUTime: 10, Memory: 8192},
			{TestCase: "3", Result: 0, CPUTime: 25, Memory: 1024},
		}, nil
	}}

	d, subs, _, stats := newTestDispatcher(testSubmission("C"), testProblem(), nil, client)
	if err := d.Judge(context.Background(), "s1", "p1"); err != nil {
		t.Fatalf("Judge: %v", err)
	}

	if subs.judgingCalls != 1 {
		t.Errorf("MarkJudging calls = %d, want 1", subs.judgingCalls)
	}
	final := subs.finalized
	if final == nil {
		t.Fatal("submission never finalized")
	}
	if final.Verdict != model.VerdictAccepted {
		t.Errorf("Verdict = %s, want Accepted", final.Verdict)
	}
	for i, r := range final.CaseResults {
		if r.TestCase != i+1 {
			t.Errorf("case results not sorted: index %d holds test case %d", i, r.TestCase)
		}
	}
	if final.Statistics.TimeCost != 40 || final.Statistics.MemoryCost != 8192 {
		t.Errorf("statistics = %+v, want max time 40 and max memory 8192", final.Statistics)
	}
	if len(stats.applied) != 1 {
		t.Errorf("stats applied %d times, want 1", len(stats.applied))
	}
}

func TestJudgeVerdictIsLowestFailingIndex(t *testing.T) {
	// Failures arrive out of order; the verdict must come from case 2, not
	// the later-indexed failure that happened to arrive first.
	client := &fakeJudgeClient{judge: func(req JudgeRequest) ([]CaseOutcome, error) {
		return []CaseOutcome{
			{TestCase: "4", Result: 1},
			{TestCase: "2", Result: -1},
			{TestCase: "1", Result: 0},
			{TestCase: "3", Result: 0},
		}, nil
	}}

	d, subs, _, _ := newTestDispatcher(testSubmission("C"), testProblem(), nil, client)
	if err := d.Judge(context.Background(), "s1", "p1"); err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if subs.finalized.Verdict != model.VerdictWrongAnswer {
		t.Errorf("Verdict = %s, want WrongAnswer from the lowest failing index", subs.finalized.Verdict)
	}
}

func TestJudgeLimitTiers(t *testing.T) {
	cases := []struct {
		language   string
		wantCPU    int
		wantMemory int
	}{
		{"C", 1000, 128 * 1024 * 1024},
		{"C++", 1000, 128 * 1024 * 1024},
		{"Python3", 3000, 512 * 1024 * 1024},
		{"Java", 3000, 512 * 1024 * 1024},
	}
	for _, tc := range cases {
		client := &fakeJudgeClient{judge: func(req JudgeRequest) ([]CaseOutcome, error) {
			return []CaseOutcome{{TestCase: "1", Result: 0}}, nil
		}}
		d, _, _, _ := newTestDispatcher(testSubmission(tc.language), testProblem(), nil, client)
		if err := d.Judge(context.Background(), "s1", "p1"); err != nil {
			t.Fatalf("%s: Judge: %v", tc.language, err)
		}
		if client.lastReq.MaxCPUTime != tc.wantCPU || client.lastReq.MaxMemory != tc.wantMemory {
			t.Errorf("%s: limits = (%d, %d), want (%d, %d)", tc.language,
				client.lastReq.MaxCPUTime, client.lastReq.MaxMemory, tc.wantCPU, tc.wantMemory)
		}
	}
}

func TestJudgeCompileErrorSkipsStatistics(t *testing.T) {
	client := &fakeJudgeClient{judge: func(req JudgeRequest) ([]CaseOutcome, error) {
		return nil, &CompileFailure{Output: "main.c:1: error"}
	}}

	d, subs, _, stats := newTestDispatcher(testSubmission("C"), testProblem(), nil, client)
	if err := d.Judge(context.Background(), "s1", "p1"); err != nil {
		t.Fatalf("Judge: %v", err)
	}

	final := subs.finalized
	if final.Verdict != model.VerdictCompileError {
		t.Errorf("Verdict = %s, want CompileError", final.Verdict)
	}
	if final.Statistics.ErrInfo == nil || *final.Statistics.ErrInfo != "main.c:1: error" {
		t.Errorf("ErrInfo = %v, want compiler output", final.Statistics.ErrInfo)
	}
	if len(stats.applied) != 0 {
		t.Error("compile errors must not touch statistics")
	}
}

func TestJudgeClientFailureYieldsSystemError(t *testing.T) {
	client := &fakeJudgeClient{judge: func(req JudgeRequest) ([]CaseOutcome, error) {
		return nil, ErrJudgeClient
	}}

	d, subs, _, stats := newTestDispatcher(testSubmission("C"), testProblem(), nil, client)
	if err := d.Judge(context.Background(), "s1", "p1"); err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if subs.finalized.Verdict != model.VerdictSystemError {
		t.Errorf("Verdict = %s, want SystemError", subs.finalized.Verdict)
	}
	if len(stats.applied) != 0 {
		t.Error("system errors must not touch statistics")
	}
}

func TestJudgeNonNumericIndexYieldsSystemError(t *testing.T) {
	client := &fakeJudgeClient{judge: func(req JudgeRequest) ([]CaseOutcome, error) {
		return []CaseOutcome{{TestCase: "first", Result: 0}}, nil
	}}

	d, subs, _, stats := newTestDispatcher(testSubmission("C"), testProblem(), nil, client)
	if err := d.Judge(context.Background(), "s1", "p1"); err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if subs.finalized.Verdict != model.VerdictSystemError {
		t.Errorf("Verdict = %s, want SystemError", subs.finalized.Verdict)
	}
	if len(stats.applied) != 0 {
		t.Error("malformed outcomes must not touch statistics")
	}
}

func TestJudgeEmptyOutcomeListYieldsSystemError(t *testing.T) {
	// A well-formed envelope with no outcomes must never mint an acceptance.
	client := &fakeJudgeClient{judge: func(req JudgeRequest) ([]CaseOutcome, error) {
		return []CaseOutcome{}, nil
	}}

	d, subs, _, stats := newTestDispatcher(testSubmission("C"), testProblem(), nil, client)
	if err := d.Judge(context.Background(), "s1", "p1"); err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if subs.finalized.Verdict != model.VerdictSystemError {
		t.Errorf("Verdict = %s, want SystemError", subs.finalized.Verdict)
	}
	if subs.finalized.Statistics.ErrInfo == nil {
		t.Error("ErrInfo should record the malformed response")
	}
	if len(stats.applied) != 0 {
		t.Error("an empty outcome list must not touch statistics")
	}
}

func TestJudgeUnsupportedLanguageFailsBeforeJudging(t *testing.T) {
	client := &fakeJudgeClient{judge: func(req JudgeRequest) ([]CaseOutcome, error) {
		t.Error("judge server must not be called for an unsupported language")
		return nil, nil
	}}

	d, subs, _, _ := newTestDispatcher(testSubmission("Cobol"), testProblem(), nil, client)
	if err := d.Judge(context.Background(), "s1", "p1"); err == nil {
		t.Fatal("expected an error for an unsupported language")
	}
	if subs.judgingCalls != 0 {
		t.Error("submission must not be marked judging when the profile lookup fails")
	}
}

func TestJudgeContestSubmission(t *testing.T) {
	contestID := "c1"
	sub := testSubmission("Python3")
	sub.ContestID = &contestID
	contest := &model.Contest{ID: contestID, RuleType: model.RuleTypeOI}

	client := &fakeJudgeClient{judge: func(req JudgeRequest) ([]CaseOutcome, error) {
		return []CaseOutcome{
			{TestCase: "1", Result: 0},
			{TestCase: "2", Result: -1},
		}, nil
	}}

	d, subs, probs, stats := newTestDispatcher(sub, testProblem(), contest, client)
	if err := d.Judge(context.Background(), "s1", "p1"); err != nil {
		t.Fatalf("Judge: %v", err)
	}

	if probs.contestLookups != 1 || probs.standaloneLookups != 0 {
		t.Error("contest submissions must resolve the problem within the contest")
	}
	if subs.finalized.Statistics.Score != 50 {
		t.Errorf("Score = %d, want 50 for one of two cases accepted", subs.finalized.Statistics.Score)
	}
	if len(stats.applied) != 1 {
		t.Errorf("stats applied %d times, want 1", len(stats.applied))
	}
}

func TestJudgeForwardsSPJConfig(t *testing.T) {
	problem := testProblem()
	problem.SPJ = true
	lang := "C"
	version := "v3"
	src := "int main() { return check(); }"
	problem.SPJLanguage = &lang
	problem.SPJVersion = &version
	problem.SPJSrc = &src

	client := &fakeJudgeClient{judge: func(req JudgeRequest) ([]CaseOutcome, error) {
		return []CaseOutcome{{TestCase: "1", Result: 0}}, nil
	}}

	d, _, _, _ := newTestDispatcher(testSubmission("C"), problem, nil, client)
	if err := d.Judge(context.Background(), "s1", "p1"); err != nil {
		t.Fatalf("Judge: %v", err)
	}

	req := client.lastReq
	if req.SPJConfig == nil || req.SPJCompileConfig == nil {
		t.Fatal("spj configs not forwarded")
	}
	if req.SPJVersion == nil || *req.SPJVersion != "v3" {
		t.Errorf("SPJVersion = %v, want v3", req.SPJVersion)
	}
	if req.SPJSrc == nil || *req.SPJSrc != src {
		t.Error("spj source not forwarded")
	}
}
