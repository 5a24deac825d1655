package scenario

import "fmt"

// BackendError wraps a failed backend call with enough context to diagnose
// the failure from the report alone: platform, step, and the underlying cause.
type BackendError struct {
	PlatformID string
	StepIndex  int
	Cause      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend call failed platform_id=%s step_index=%d: %v", e.PlatformID, e.StepIndex, e.Cause)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// SelectionError marks malformed selection input. It aborts the orchestrator
// before any group runs.
type SelectionError struct {
	Reason string
}

func (e *SelectionError) Error() string {
	return "invalid selection: " + e.Reason
}

// DuplicateStepError reports two step records claiming the same step index
// within one (scenario, platform) group. Duplicate indices are a data error.
type DuplicateStepError struct {
	Key       Key
	StepIndex int
}

func (e *DuplicateStepError) Error() string {
	return fmt.Sprintf("duplicate step_index=%d in group %s", e.StepIndex, e.Key)
}

// ScoringError wraps a failed scoring call. It is recovered locally: the
// message lands in ScoreResult.Comment, never in process termination.
type ScoringError struct {
	ScenarioID string
	Cause      error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring failed scenario_id=%s: %v", e.ScenarioID, e.Cause)
}

func (e *ScoringError) Unwrap() error {
	return e.Cause
}
