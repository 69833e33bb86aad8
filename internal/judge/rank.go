package judge

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"
)

// Penalty per failed attempt on a problem that is eventually solved.
const acmPenaltySeconds = 20 * 60

// Ranker applies one judged submission to a contest rank row. The variant is
// chosen once per contest load; call sites never re-branch on the rule type.
type Ranker interface {
	Apply(ctx context.Context, tx *sql.Tx, repo repository.ContestRepository, sub *model.Submission, contest *model.Contest, newSolvedCount int) error
}

func RankerFor(contest *model.Contest) Ranker {
	if contest.RuleType == model.RuleTypeOI {
		return oiRanker{}
	}
	return acmRanker{}
}

type acmRanker struct{}

func (acmRanker) Apply(ctx context.Context, tx *sql.Tx, repo repository.ContestRepository, sub *model.Submission, contest *model.Contest, newSolvedCount int) error {
	rank, err := repo.GetACMRankForUpdate(ctx, tx, sub.UserID, contest.ID)
	if err != nil {
		return err
	}
	applyACMSubmission(rank, sub.ProblemID, sub.Verdict, sub.CreatedAt, contest.StartTime, newSolvedCount)
	if err := repo.SaveACMRank(ctx, tx, rank); err != nil {
		return fmt.Errorf("failed to save ACM rank for user %s: %w", sub.UserID, err)
	}
	return nil
}

// applyACMSubmission mutates an ACM rank row for one judged submission.
// A problem already marked accepted is frozen: only the row's overall
// submission counter moves.
func applyACMSubmission(rank *model.ACMContestRank, problemID string, verdict model.Verdict, submittedAt, contestStart time.Time, newSolvedCount int) {
	if rank.SubmissionInfo == nil {
		rank.SubmissionInfo = map[string]model.ProblemProgress{}
	}
	rank.SubmissionNumber++

	info := rank.SubmissionInfo[problemID]
	if info.Accepted {
		return
	}

	if verdict == model.VerdictAccepted {
		info.Accepted = true
		info.ACTime = int(submittedAt.Sub(contestStart).Seconds())
		info.IsFirstAC = newSolvedCount == 1
		rank.AcceptedNumber++
		rank.TotalTime += info.ACTime + info.FailedNumber*acmPenaltySeconds
	} else {
		info.FailedNumber++
	}
	rank.SubmissionInfo[problemID] = info
}

type oiRanker struct{}

func (oiRanker) Apply(ctx context.Context, tx *sql.Tx, repo repository.ContestRepository, sub *model.Submission, contest *model.Contest, newSolvedCount int) error {
	rank, err := repo.GetOIRankForUpdate(ctx, tx, sub.UserID, contest.ID)
	if err != nil {
		return err
	}
	applyOISubmission(rank, sub.ProblemID, sub.Statistics.Score)
	if err := repo.SaveOIRank(ctx, tx, rank); err != nil {
		return fmt.Errorf("failed to save OI rank for user %s: %w", sub.UserID, err)
	}
	return nil
}

// applyOISubmission keeps the per-problem best score and a total equal to
// the sum of the map's values. A submission scoring below the recorded best
// only moves the submission counter.
func applyOISubmission(rank *model.OIContestRank, problemID string, score int) {
	if rank.SubmissionInfo == nil {
		rank.SubmissionInfo = map[string]int{}
	}
	rank.SubmissionNumber++

	best := rank.SubmissionInfo[problemID]
	if score > best {
		rank.TotalScore += score - best
		rank.SubmissionInfo[problemID] = score
	}
}

// OIScore is the default OI scoring function: the floor of 100 times the
// fraction of accepted test cases.
func OIScore(results []model.TestCaseResult) int {
	if len(results) == 0 {
		return 0
	}
	accepted := 0
	for _, r := range results {
		if r.Verdict == model.VerdictAccepted {
			accepted++
		}
	}
	return 100 * accepted / len(results)
}
