// Package runner executes a single scenario run: the ordered steps of one
// scenario against one platform, threading the conversation through each
// backend call and persisting every step result as it lands.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/backend"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/report"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/statusreporter"
)

// Metrics receives step completion events. Implemented by metrics.Recorder;
// a nil Metrics disables recording.
type Metrics interface {
	ObserveStep(platformID string, status scenario.StepStatus)
	ObserveScenario(platformID string, duration time.Duration)
}

// Outcome is the in-memory result of one scenario run, consumed by scoring.
// The persisted step results live in the sink; Outcome carries what scoring
// needs without a read-back.
type Outcome struct {
	Key          scenario.Key
	Conversation *scenario.Conversation
	Statuses     map[int]scenario.StepStatus
	Successes    int

	// Aborted is set when the run stopped before executing every step, so
	// the conversation is incomplete and the run must not be scored.
	Aborted bool
}

// Runner executes the steps of one scenario run in order.
type Runner struct {
	Key     scenario.Key
	Steps   []scenario.StepRecord
	Client  backend.Client
	Sink    report.Sink
	Logger  *slog.Logger
	Status  *statusreporter.StatusReporter
	Metrics Metrics
}

// Run executes each step in ascending index order. A failed backend call is
// recorded and skipped over; the conversation keeps only successful turns and
// later steps still execute. A sink failure is fatal: the run stops rather
// than continue without durable results.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	steps := make([]scenario.StepRecord, len(r.Steps))
	copy(steps, r.Steps)
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepIndex < steps[j].StepIndex })

	outcome := &Outcome{
		Key:          r.Key,
		Conversation: &scenario.Conversation{},
		Statuses:     make(map[int]scenario.StepStatus, len(steps)),
	}

	start := time.Now()
	for n, step := range steps {
		if err := ctx.Err(); err != nil {
			outcome.Aborted = true
			return outcome, err
		}
		r.setStatus(fmt.Sprintf("executing step %d/%d", n+1, len(steps)))

		result := r.executeStep(ctx, step, outcome.Conversation)
		outcome.Statuses[step.StepIndex] = result.Status
		if result.Status == scenario.StepSuccess {
			outcome.Successes++
		}
		if r.Metrics != nil {
			r.Metrics.ObserveStep(r.Key.PlatformID, result.Status)
		}

		if err := r.Sink.UpsertStep(r.Key, step.StepIndex, result); err != nil {
			r.setStatus("aborted, report write failed")
			outcome.Aborted = true
			return outcome, fmt.Errorf("persisting step %d for %s/%s: %w",
				step.StepIndex, r.Key.ScenarioID, r.Key.PlatformID, err)
		}
	}

	if r.Metrics != nil {
		r.Metrics.ObserveScenario(r.Key.PlatformID, time.Since(start))
	}
	r.setStatus(fmt.Sprintf("completed, %d/%d steps succeeded", outcome.Successes, len(steps)))
	return outcome, nil
}

// executeStep performs one backend call. Errors become failed step results
// rather than runner errors.
func (r *Runner) executeStep(ctx context.Context, step scenario.StepRecord, conv *scenario.Conversation) scenario.StepResult {
	reply, err := r.Client.Send(ctx, conv.Turns(), step.Input)
	if err != nil {
		berr := &scenario.BackendError{
			PlatformID: r.Key.PlatformID,
			StepIndex:  step.StepIndex,
			Cause:      err,
		}
		r.Logger.Warn("step failed",
			"scenario_id", r.Key.ScenarioID,
			"platform_id", r.Key.PlatformID,
			"step_index", step.StepIndex,
			"error", err)
		return scenario.StepResult{
			Status: scenario.StepFailed,
			Err:    berr.Error(),
		}
	}

	conv.Append(step.Input, reply.Text)
	r.Logger.Debug("step completed",
		"scenario_id", r.Key.ScenarioID,
		"platform_id", r.Key.PlatformID,
		"step_index", step.StepIndex)
	return scenario.StepResult{
		Status:       scenario.StepSuccess,
		FullResponse: reply.Raw,
		TextResponse: reply.Text,
	}
}

func (r *Runner) setStatus(status string) {
	if r.Status != nil {
		r.Status.SetStatus(r.Key, status)
	}
}
