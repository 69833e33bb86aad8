package judge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"

	"codearena/internal/domain/model"
	"codearena/internal/domain/repository"
)

// JudgeClient is the slice of the judge server client the dispatcher needs.
type JudgeClient interface {
	Judge(ctx context.Context, req JudgeRequest) ([]CaseOutcome, error)
}

// StatsApplier runs the atomic aggregate-update phase for one judged
// submission.
type StatsApplier interface {
	Apply(ctx context.Context, sub *model.Submission, problem *model.Problem, contest *model.Contest) error
}

// Dispatcher orchestrates one judging attempt end to end: resolve limits,
// call the judge server, derive the verdict, persist the submission, and
// trigger the aggregate updates.
type Dispatcher struct {
	submissions repository.SubmissionRepository
	problems    repository.ProblemRepository
	contests    repository.ContestRepository
	client      JudgeClient
	stats       StatsApplier
}

func NewDispatcher(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	contestRepo repository.ContestRepository,
	client JudgeClient,
	stats StatsApplier,
) *Dispatcher {
	return &Dispatcher{
		submissions: subRepo,
		problems:    probRepo,
		contests:    contestRepo,
		client:      client,
		stats:       stats,
	}
}

// Judge runs one judging attempt for the given submission. The caller must
// guarantee at most one in-flight invocation per submission id.
//
// System errors and compile failures are persisted as verdicts and stop the
// pipeline before any statistics are touched; they are not attributable to
// the submission's correctness.
func (d *Dispatcher) Judge(ctx context.Context, submissionID, problemID string) error {
	sub, err := d.submissions.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to load submission %s: %w", submissionID, err)
	}

	var problem *model.Problem
	var contest *model.Contest
	if sub.ContestID != nil {
		// A contest problem's test bundle may differ from the catalog
		// entry with the same title; resolve within the contest.
		problem, err = d.problems.FindContestProblem(ctx, problemID, *sub.ContestID)
		if err != nil {
			return fmt.Errorf("failed to load contest problem %s: %w", problemID, err)
		}
		contest, err = d.contests.FindContestByID(ctx, *sub.ContestID)
		if err != nil {
			return fmt.Errorf("failed to load contest %s: %w", *sub.ContestID, err)
		}
	} else {
		problem, err = d.problems.FindProblemByID(ctx, problemID)
		if err != nil {
			return fmt.Errorf("failed to load problem %s: %w", problemID, err)
		}
	}

	langCfg, err := LanguageConfigFor(sub.Language)
	if err != nil {
		return err
	}

	var maxCPUTime, maxMemory int
	if UsesStandardLimits(sub.Language) {
		maxCPUTime = problem.StandardTimeLimit
		maxMemory = problem.StandardMemoryLimit * 1024 * 1024
	} else {
		maxCPUTime = problem.OtherTimeLimit
		maxMemory = problem.OtherMemoryLimit * 1024 * 1024
	}

	// Single-field update so concurrent readers see the state change
	// before the judging round-trip finishes.
	if err := d.submissions.MarkJudging(ctx, sub.ID); err != nil {
		return fmt.Errorf("failed to mark submission %s judging: %w", sub.ID, err)
	}

	req := JudgeRequest{
		LanguageConfig: langCfg,
		Src:            sub.Code,
		MaxCPUTime:     maxCPUTime,
		MaxMemory:      maxMemory,
		TestCaseID:     &problem.TestCaseID,
	}
	if problem.SPJ && problem.SPJLanguage != nil {
		spjCompile, spjRun, err := SPJConfigsFor(*problem.SPJLanguage)
		if err != nil {
			return err
		}
		req.SPJVersion = problem.SPJVersion
		req.SPJConfig = &spjRun
		req.SPJCompileConfig = &spjCompile
		req.SPJSrc = problem.SPJSrc
	}

	log.Printf("INFO: Sending judge request for submission %s (problem %s)", sub.ID, problem.ID)
	outcomes, err := d.client.Judge(ctx, req)
	if err != nil {
		var compileErr *CompileFailure
		if errors.As(err, &compileErr) {
			sub.Verdict = model.VerdictCompileError
			sub.Statistics.ErrInfo = &compileErr.Output
			if ferr := d.submissions.FinalizeSubmission(ctx, sub); ferr != nil {
				return fmt.Errorf("failed to persist compile error for %s: %w", sub.ID, ferr)
			}
			log.Printf("INFO: Submission %s failed to compile", sub.ID)
			return nil
		}

		sub.Verdict = model.VerdictSystemError
		errInfo := err.Error()
		sub.Statistics.ErrInfo = &errInfo
		if ferr := d.submissions.FinalizeSubmission(ctx, sub); ferr != nil {
			return fmt.Errorf("failed to persist system error for %s: %w", sub.ID, ferr)
		}
		log.Printf("ERROR: Judge call failed for submission %s: %v", sub.ID, err)
		return nil
	}

	results, err := convertOutcomes(outcomes)
	if err != nil {
		sub.Verdict = model.VerdictSystemError
		errInfo := err.Error()
		sub.Statistics.ErrInfo = &errInfo
		if ferr := d.submissions.FinalizeSubmission(ctx, sub); ferr != nil {
			return fmt.Errorf("failed to persist system error for %s: %w", sub.ID, ferr)
		}
		log.Printf("ERROR: Malformed judge outcomes for submission %s: %v", sub.ID, err)
		return nil
	}

	sub.CaseResults = results
	sub.Verdict = deriveVerdict(results)
	sub.Statistics.TimeCost, sub.Statistics.MemoryCost = deriveStatistics(results)
	if contest != nil && contest.RuleType == model.RuleTypeOI {
		sub.Statistics.Score = OIScore(results)
	}

	if err := d.submissions.FinalizeSubmission(ctx, sub); err != nil {
		return fmt.Errorf("failed to persist verdict for %s: %w", sub.ID, err)
	}
	log.Printf("INFO: Submission %s judged: %s", sub.ID, sub.Verdict)

	// The verdict above is never rolled back; statistics convergence is
	// retried independently inside the applier.
	if err := d.stats.Apply(ctx, sub, problem, contest); err != nil {
		return fmt.Errorf("failed to update statistics for %s: %w", sub.ID, err)
	}
	return nil
}

// convertOutcomes parses the wire outcomes and sorts them by ascending test
// case index; the judge server does not guarantee submission order. An empty
// list is malformed: every test bundle has at least one case, and deriving a
// verdict from zero outcomes would report a solve that never ran.
func convertOutcomes(outcomes []CaseOutcome) ([]model.TestCaseResult, error) {
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("judge response carried no test case outcomes: %w", ErrJudgeClient)
	}
	results := make([]model.TestCaseResult, 0, len(outcomes))
	for _, o := range outcomes {
		index, err := strconv.Atoi(o.TestCase)
		if err != nil {
			return nil, fmt.Errorf("non-numeric test case index %q: %w", o.TestCase, ErrJudgeClient)
		}
		results = append(results, model.TestCaseResult{
			TestCase: index,
			Verdict:  model.VerdictFromJudgeCode(o.Result),
			CPUTime:  o.CPUTime,
			Memory:   o.Memory,
			Output:   o.Output,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].TestCase < results[j].TestCase })
	return results, nil
}

// deriveVerdict returns Accepted when every case passed, otherwise the
// verdict of the lowest-index failing case. Deterministic regardless of the
// order the raw outcomes arrived in.
func deriveVerdict(results []model.TestCaseResult) model.Verdict {
	for _, r := range results {
		if r.Verdict != model.VerdictAccepted {
			return r.Verdict
		}
	}
	return model.VerdictAccepted
}

func deriveStatistics(results []model.TestCaseResult) (timeCost, memoryCost int) {
	for _, r := range results {
		if r.CPUTime > timeCost {
			timeCost = r.CPUTime
		}
		if r.Memory > memoryCost {
			memoryCost = r.Memory
		}
	}
	return timeCost, memoryCost
}
