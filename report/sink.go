// Package report persists benchmark results. The Sink interface is a durable
// keyed store: every upsert call must be persisted before it returns, so a
// process interrupted after step N has N results on disk. Writes to different
// keys are safe from concurrent scenario runners.
package report

import (
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// Sink is the durable keyed store of benchmark results.
//
// UpsertStep is keyed by (scenario_id, platform_id, step_index) and
// UpsertScore by (scenario_id, platform_id); repeated invocations over the
// same key overwrite rather than duplicate, which makes whole-scenario
// re-runs idempotent.
type Sink interface {
	UpsertStep(key scenario.Key, stepIndex int, result scenario.StepResult) error
	UpsertScore(key scenario.Key, result scenario.ScoreResult) error
}
