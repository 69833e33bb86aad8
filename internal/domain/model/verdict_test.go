package model

import "testing"

func TestVerdictFromJudgeCode(t *testing.T) {
	cases := []struct {
		code int
		want Verdict
	}{
		{JudgeCodeCompileError, VerdictCompileError},
		{JudgeCodeWrongAnswer, VerdictWrongAnswer},
		{JudgeCodeAccepted, VerdictAccepted},
		{JudgeCodeCPUTimeLimitExceeded, VerdictCPUTimeLimitExceeded},
		{JudgeCodeRealTimeLimitExceeded, VerdictRealTimeLimitExceeded},
		{JudgeCodeMemoryLimitExceeded, VerdictMemoryLimitExceeded},
		{JudgeCodeRuntimeError, VerdictRuntimeError},
		{JudgeCodeSystemError, VerdictSystemError},
		{JudgeCodePending, VerdictPending},
		{JudgeCodeJudging, VerdictJudging},
		{JudgeCodePartiallyAccepted, VerdictPartiallyAccepted},
	}
	for _, c := range cases {
		if got := VerdictFromJudgeCode(c.code); got != c.want {
			t.Errorf("VerdictFromJudgeCode(%d) = %s, want %s", c.code, got, c.want)
		}
	}
}

func TestVerdictFromJudgeCodeUnknown(t *testing.T) {
	for _, code := range []int{-3, 9, 42, 100} {
		if got := VerdictFromJudgeCode(code); got != VerdictSystemError {
			t.Errorf("VerdictFromJudgeCode(%d) = %s, want SystemError", code, got)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if VerdictPending.IsTerminal() {
		t.Error("Pending should not be terminal")
	}
	if VerdictJudging.IsTerminal() {
		t.Error("Judging should not be terminal")
	}
	for _, v := range []Verdict{VerdictAccepted, VerdictWrongAnswer, VerdictCompileError, VerdictSystemError, VerdictPartiallyAccepted} {
		if !v.IsTerminal() {
			t.Errorf("%s should be terminal", v)
		}
	}
}

func TestCountsTowardStatistics(t *testing.T) {
	for _, v := range []Verdict{VerdictPending, VerdictJudging, VerdictSystemError, VerdictCompileError} {
		if v.CountsTowardStatistics() {
			t.Errorf("%s must not count toward statistics", v)
		}
	}
	for _, v := range []Verdict{VerdictAccepted, VerdictWrongAnswer, VerdictCPUTimeLimitExceeded, VerdictRuntimeError} {
		if !v.CountsTowardStatistics() {
			t.Errorf("%s must count toward statistics", v)
		}
	}
}
