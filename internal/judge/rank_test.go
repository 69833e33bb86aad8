package judge

import (
	"testing"
	"time"

	"codearena/internal/domain/model"
)

var contestStart = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newACMRank() *model.ACMContestRank {
	return &model.ACMContestRank{
		UserID:         "u1",
		ContestID:      "c1",
		SubmissionInfo: map[string]model.ProblemProgress{},
	}
}

func TestACMFailThenAcceptAddsPenalty(t *testing.T) {
	rank := newACMRank()

	applyACMSubmission(rank, "p1", model.VerdictWrongAnswer, contestStart.Add(10*time.Second), contestStart, 0)
	applyACMSubmission(rank, "p1", model.VerdictRuntimeError, contestStart.Add(30*time.Second), contestStart, 0)
	applyACMSubmission(rank, "p1", model.VerdictAccepted, contestStart.Add(90*time.Second), contestStart, 2)

	if rank.SubmissionNumber != 3 {
		t.Errorf("SubmissionNumber = %d, want 3", rank.SubmissionNumber)
	}
	if rank.AcceptedNumber != 1 {
		t.Errorf("AcceptedNumber = %d, want 1", rank.AcceptedNumber)
	}
	// 90s to acceptance plus two failed attempts at 20 minutes each.
	want := 90 + 2*1200
	if rank.TotalTime != want {
		t.Errorf("TotalTime = %d, want %d", rank.TotalTime, want)
	}

	info := rank.SubmissionInfo["p1"]
	if !info.Accepted || info.ACTime != 90 || info.FailedNumber != 2 {
		t.Errorf("unexpected progress: %+v", info)
	}
	if info.IsFirstAC {
		t.Error("IsFirstAC should be false when solved count is 2")
	}
}

func TestACMFirstToSolve(t *testing.T) {
	rank := newACMRank()
	applyACMSubmission(rank, "p1", model.VerdictAccepted, contestStart.Add(time.Minute), contestStart, 1)

	if !rank.SubmissionInfo["p1"].IsFirstAC {
		t.Error("IsFirstAC should be true when solved count is 1")
	}
}

func TestACMProblemFrozenAfterAcceptance(t *testing.T) {
	rank := newACMRank()
	applyACMSubmission(rank, "p1", model.VerdictAccepted, contestStart.Add(time.Minute), contestStart, 1)

	before := rank.SubmissionInfo["p1"]
	totalBefore := rank.TotalTime
	acceptedBefore := rank.AcceptedNumber

	applyACMSubmission(rank, "p1", model.VerdictWrongAnswer, contestStart.Add(2*time.Minute), contestStart, 1)
	applyACMSubmission(rank, "p1", model.VerdictAccepted, contestStart.Add(3*time.Minute), contestStart, 1)

	if rank.SubmissionNumber != 3 {
		t.Errorf("SubmissionNumber = %d, want 3", rank.SubmissionNumber)
	}
	if rank.TotalTime != totalBefore || rank.AcceptedNumber != acceptedBefore {
		t.Error("accepted problem must be frozen except for the submission counter")
	}
	if rank.SubmissionInfo["p1"] != before {
		t.Errorf("progress changed after acceptance: %+v", rank.SubmissionInfo["p1"])
	}
}

func TestACMFailedAttemptWithoutAcceptanceHasNoPenalty(t *testing.T) {
	rank := newACMRank()
	applyACMSubmission(rank, "p1", model.VerdictWrongAnswer, contestStart.Add(time.Minute), contestStart, 0)
	applyACMSubmission(rank, "p1", model.VerdictWrongAnswer, contestStart.Add(2*time.Minute), contestStart, 0)

	if rank.TotalTime != 0 {
		t.Errorf("TotalTime = %d, want 0 before any acceptance", rank.TotalTime)
	}
	if rank.SubmissionInfo["p1"].FailedNumber != 2 {
		t.Errorf("FailedNumber = %d, want 2", rank.SubmissionInfo["p1"].FailedNumber)
	}
}

func TestOIBestScoreKept(t *testing.T) {
	rank := &model.OIContestRank{SubmissionInfo: map[string]int{}}

	applyOISubmission(rank, "p1", 40)
	applyOISubmission(rank, "p1", 70)
	applyOISubmission(rank, "p1", 50) // worse, must not regress
	applyOISubmission(rank, "p2", 100)

	if rank.SubmissionNumber != 4 {
		t.Errorf("SubmissionNumber = %d, want 4", rank.SubmissionNumber)
	}
	if rank.SubmissionInfo["p1"] != 70 {
		t.Errorf("best score for p1 = %d, want 70", rank.SubmissionInfo["p1"])
	}
	if rank.TotalScore != 170 {
		t.Errorf("TotalScore = %d, want 170", rank.TotalScore)
	}

	// TotalScore always equals the sum of the per-problem bests.
	sum := 0
	for _, s := range rank.SubmissionInfo {
		sum += s
	}
	if sum != rank.TotalScore {
		t.Errorf("TotalScore %d diverged from sum of bests %d", rank.TotalScore, sum)
	}
}

func TestOIScore(t *testing.T) {
	ac := model.TestCaseResult{Verdict: model.VerdictAccepted}
	wa := model.TestCaseResult{Verdict: model.VerdictWrongAnswer}

	cases := []struct {
		results []model.TestCaseResult
		want    int
	}{
		{nil, 0},
		{[]model.TestCaseResult{ac, ac, ac}, 100},
		{[]model.TestCaseResult{ac, wa, wa}, 33},
		{[]model.TestCaseResult{wa, wa}, 0},
		{[]model.TestCaseResult{ac, ac, wa}, 66},
	}
	for i, c := range cases {
		if got := OIScore(c.results); got != c.want {
			t.Errorf("case %d: OIScore = %d, want %d", i, got, c.want)
		}
	}
}

func TestRankerFor(t *testing.T) {
	if _, ok := RankerFor(&model.Contest{RuleType: model.RuleTypeOI}).(oiRanker); !ok {
		t.Error("OI contest should get the OI ranker")
	}
	if _, ok := RankerFor(&model.Contest{RuleType: model.RuleTypeACM}).(acmRanker); !ok {
		t.Error("ACM contest should get the ACM ranker")
	}
}
