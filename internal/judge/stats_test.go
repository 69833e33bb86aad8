package judge

import (
	"context"
	"testing"
	"time"

	"codearena/internal/domain/model"
)

func TestApplySkipsNonCountingVerdicts(t *testing.T) {
	// No database is wired; reaching the transaction would panic.
	updater := NewStatisticsUpdater(nil, nil, nil, nil, nil, 3, time.Millisecond)

	for _, v := range []model.Verdict{model.VerdictSystemError, model.VerdictCompileError, model.VerdictPending, model.VerdictJudging} {
		sub := &model.Submission{ID: "s1", Verdict: v}
		if err := updater.Apply(context.Background(), sub, &model.Problem{ID: "p1"}, nil); err != nil {
			t.Errorf("%s: Apply = %v, want nil no-op", v, err)
		}
	}
}
