// Package orchestrator groups benchmark step records into scenario runs and
// drives their execution across platforms.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/backend"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/logging"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/report"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/runner"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/statusreporter"
)

// Scorer evaluates a finished scenario run. Scoring happens only after every
// group has finished executing. A nil Scorer disables scoring.
type Scorer interface {
	Score(ctx context.Context, outcome *runner.Outcome) error
}

// Orchestrator executes scenario runs. Runs on the same platform execute
// sequentially so conversations never interleave against one backend;
// different platforms run concurrently.
type Orchestrator struct {
	Clients *backend.Registry
	Sink    report.Sink
	Logger  *slog.Logger
	Status  *statusreporter.StatusReporter
	Metrics runner.Metrics
	Scorer  Scorer

	// Hook, when set, wraps the logger per scenario run so its records can be
	// captured alongside the report.
	Hook logging.LoggerHook

	// MaxConcurrent caps how many platforms execute at once. Zero means no
	// limit.
	MaxConcurrent int
}

// Execute runs every group to completion, then scores. A group failure is
// recorded and does not stop other groups; the returned error reflects only
// context cancellation or scoring problems.
func (o *Orchestrator) Execute(ctx context.Context, groups []Group) ([]*runner.Outcome, error) {
	byPlatform := partition(groups)

	var (
		mu       sync.Mutex
		outcomes []*runner.Outcome
	)

	eg, egCtx := errgroup.WithContext(ctx)
	if o.MaxConcurrent > 0 {
		eg.SetLimit(o.MaxConcurrent)
	}

	for _, platform := range byPlatform {
		platform := platform
		eg.Go(func() error {
			for _, group := range platform.groups {
				outcome := o.runGroup(egCtx, group)
				if outcome == nil {
					continue
				}
				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return outcomes, err
	}
	if err := ctx.Err(); err != nil {
		return outcomes, err
	}

	// Preserve group submission order for scoring and reporting.
	ordered := orderOutcomes(groups, outcomes)

	if o.Scorer != nil {
		for _, outcome := range ordered {
			if outcome.Aborted {
				o.Logger.Info("skipping scoring, run did not complete",
					"scenario_id", outcome.Key.ScenarioID,
					"platform_id", outcome.Key.PlatformID)
				continue
			}
			if err := o.Scorer.Score(ctx, outcome); err != nil {
				o.Logger.Error("scoring failed",
					"scenario_id", outcome.Key.ScenarioID,
					"platform_id", outcome.Key.PlatformID,
					"error", err)
			}
		}
	}
	return ordered, nil
}

// runGroup executes one scenario run. Without a configured client every step
// is recorded as failed so the report still accounts for the group.
func (o *Orchestrator) runGroup(ctx context.Context, group Group) *runner.Outcome {
	client, ok := o.Clients.Lookup(group.Key.PlatformID)
	if !ok {
		o.Logger.Error("no client configured for platform",
			"scenario_id", group.Key.ScenarioID,
			"platform_id", group.Key.PlatformID)
		o.recordUnrunnable(group)
		return nil
	}

	logger := o.Logger
	if o.Hook != nil {
		logger = o.Hook.LoggerForRun(o.Logger, group.Key)
	}

	r := &runner.Runner{
		Key:     group.Key,
		Steps:   group.Steps,
		Client:  client,
		Sink:    o.Sink,
		Logger:  logger,
		Status:  o.Status,
		Metrics: o.Metrics,
	}
	outcome, err := r.Run(ctx)
	if err != nil {
		o.Logger.Error("scenario run aborted",
			"scenario_id", group.Key.ScenarioID,
			"platform_id", group.Key.PlatformID,
			"error", err)
	}
	return outcome
}

func (o *Orchestrator) recordUnrunnable(group Group) {
	for _, step := range group.Steps {
		result := scenario.StepResult{
			Status: scenario.StepFailed,
			Err:    "no client configured for platform " + group.Key.PlatformID,
		}
		if err := o.Sink.UpsertStep(group.Key, step.StepIndex, result); err != nil {
			o.Logger.Error("failed to record unrunnable step",
				"scenario_id", group.Key.ScenarioID,
				"platform_id", group.Key.PlatformID,
				"step_index", step.StepIndex,
				"error", err)
			return
		}
	}
}

type platformGroups struct {
	platformID string
	groups     []Group
}

// partition splits groups by platform, keeping first-appearance order both
// across platforms and within each platform's group list.
func partition(groups []Group) []platformGroups {
	byID := make(map[string]int)
	var out []platformGroups
	for _, group := range groups {
		i, ok := byID[group.Key.PlatformID]
		if !ok {
			i = len(out)
			byID[group.Key.PlatformID] = i
			out = append(out, platformGroups{platformID: group.Key.PlatformID})
		}
		out[i].groups = append(out[i].groups, group)
	}
	return out
}

func orderOutcomes(groups []Group, outcomes []*runner.Outcome) []*runner.Outcome {
	byKey := make(map[scenario.Key]*runner.Outcome, len(outcomes))
	for _, outcome := range outcomes {
		byKey[outcome.Key] = outcome
	}
	ordered := make([]*runner.Outcome, 0, len(outcomes))
	for _, group := range groups {
		if outcome, ok := byKey[group.Key]; ok {
			ordered = append(ordered, outcome)
		}
	}
	return ordered
}
