package judge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"codearena/internal/common"
	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"
)

// StatisticsUpdater applies a judged submission to the shared aggregate
// counters: problem totals, user profile totals, and the contest rank row.
// One transaction per submission, row-level locks only, retried with backoff
// on transient conflicts so concurrent judging never loses an update.
type StatisticsUpdater struct {
	db          *sql.DB
	submissions repository.SubmissionRepository
	problems    repository.ProblemRepository
	users       repository.UserRepository
	contests    repository.ContestRepository
	maxRetries  int
	backoff     time.Duration
}

func NewStatisticsUpdater(
	db *sql.DB,
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	userRepo repository.UserRepository,
	contestRepo repository.ContestRepository,
	maxRetries int,
	backoff time.Duration,
) *StatisticsUpdater {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &StatisticsUpdater{
		db:          db,
		submissions: subRepo,
		problems:    probRepo,
		users:       userRepo,
		contests:    contestRepo,
		maxRetries:  maxRetries,
		backoff:     backoff,
	}
}

// Apply runs the aggregate-update unit of work. Verdicts that never executed
// a test case (system and compile errors) are a no-op by contract.
func (s *StatisticsUpdater) Apply(ctx context.Context, sub *model.Submission, problem *model.Problem, contest *model.Contest) error {
	if !sub.Verdict.CountsTowardStatistics() {
		return nil
	}

	var ranker Ranker
	if contest != nil {
		ranker = RankerFor(contest)
	}

	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff << (attempt - 1)):
			}
			log.Printf("WARN: Retrying statistics update for submission %s (attempt %d)", sub.ID, attempt+1)
		}

		err = s.applyOnce(ctx, sub, problem, contest, ranker)
		if err == nil {
			return nil
		}
		if !common.IsRetryableTxError(err) {
			return err
		}
	}
	return fmt.Errorf("statistics update for submission %s did not converge: %w", sub.ID, err)
}

func (s *StatisticsUpdater) applyOnce(ctx context.Context, sub *model.Submission, problem *model.Problem, contest *model.Contest, ranker Ranker) error {
	accepted := sub.Verdict == model.VerdictAccepted

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin statistics transaction: %w", err)
	}
	defer tx.Rollback()

	// Increment-and-return in a single statement; the new solved count
	// feeds the first-to-solve check without a separate racy read.
	newSolved, err := s.problems.IncrementSubmissionCounters(ctx, tx, problem.ID, accepted)
	if err != nil {
		return fmt.Errorf("failed to update problem counters: %w", err)
	}

	firstAccept := false
	if accepted {
		firstAccept, err = s.submissions.MarkProblemSolved(ctx, tx, sub.UserID, sub.ProblemID, sub.ID)
		if err != nil {
			return fmt.Errorf("failed to record solved problem: %w", err)
		}
	}

	if err := s.users.ApplyJudgedSubmission(ctx, tx, sub.UserID, accepted, firstAccept); err != nil {
		return fmt.Errorf("failed to update user profile counters: %w", err)
	}

	if ranker != nil {
		if err := ranker.Apply(ctx, tx, s.contests, sub, contest, newSolved); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				// Not registered for the contest; problem and user
				// counters still converge.
				log.Printf("WARN: No rank row for user %s in contest %s, skipping rank update", sub.UserID, contest.ID)
			} else {
				return fmt.Errorf("failed to update contest rank: %w", err)
			}
		}
	}

	return tx.Commit()
}
