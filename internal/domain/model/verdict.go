package model

// Verdict classifies the outcome of a submission or of a single test case.
// Values are compared for equality only; no ordering is implied.
type Verdict string

const (
	VerdictPending               Verdict = "Pending"
	VerdictJudging               Verdict = "Judging"
	VerdictAccepted              Verdict = "Accepted"
	VerdictWrongAnswer           Verdict = "WrongAnswer"
	VerdictCPUTimeLimitExceeded  Verdict = "CPUTimeLimitExceeded"
	VerdictRealTimeLimitExceeded Verdict = "RealTimeLimitExceeded"
	VerdictMemoryLimitExceeded   Verdict = "MemoryLimitExceeded"
	VerdictRuntimeError          Verdict = "RuntimeError"
	VerdictCompileError          Verdict = "CompileError"
	VerdictSystemError           Verdict = "SystemError"
	VerdictPartiallyAccepted     Verdict = "PartiallyAccepted"
)

// Integer result codes used by the judge server wire protocol.
const (
	JudgeCodeCompileError          = -2
	JudgeCodeWrongAnswer           = -1
	JudgeCodeAccepted              = 0
	JudgeCodeCPUTimeLimitExceeded  = 1
	JudgeCodeRealTimeLimitExceeded = 2
	JudgeCodeMemoryLimitExceeded   = 3
	JudgeCodeRuntimeError          = 4
	JudgeCodeSystemError           = 5
	JudgeCodePending               = 6
	JudgeCodeJudging               = 7
	JudgeCodePartiallyAccepted     = 8
)

// VerdictFromJudgeCode maps a judge server result code to a Verdict.
// Unknown codes map to SystemError so they can never masquerade as a
// legitimate outcome.
func VerdictFromJudgeCode(code int) Verdict {
	switch code {
	case JudgeCodeCompileError:
		return VerdictCompileError
	case JudgeCodeWrongAnswer:
		return VerdictWrongAnswer
	case JudgeCodeAccepted:
		return VerdictAccepted
	case JudgeCodeCPUTimeLimitExceeded:
		return VerdictCPUTimeLimitExceeded
	case JudgeCodeRealTimeLimitExceeded:
		return VerdictRealTimeLimitExceeded
	case JudgeCodeMemoryLimitExceeded:
		return VerdictMemoryLimitExceeded
	case JudgeCodeRuntimeError:
		return VerdictRuntimeError
	case JudgeCodeSystemError:
		return VerdictSystemError
	case JudgeCodePending:
		return VerdictPending
	case JudgeCodeJudging:
		return VerdictJudging
	case JudgeCodePartiallyAccepted:
		return VerdictPartiallyAccepted
	default:
		return VerdictSystemError
	}
}

// IsTerminal reports whether the verdict ends a judging attempt.
func (v Verdict) IsTerminal() bool {
	return v != VerdictPending && v != VerdictJudging
}

// CountsTowardStatistics reports whether a terminal verdict updates
// problem/user aggregate counters. System and compile errors never reached a
// test case and must not pollute statistics.
func (v Verdict) CountsTowardStatistics() bool {
	return v.IsTerminal() && v != VerdictSystemError && v != VerdictCompileError
}
