package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
)

// Recorder exposes the benchmark's domain metrics on top of a Registry, so
// the same instrumentation works in both push and scrape mode.
type Recorder struct {
	steps            CounterVec
	scenarioDuration GaugeVec
	scores           CounterVec
}

// NewRecorder registers the benchmark metrics with the given registry.
func NewRecorder(reg Registry) (*Recorder, error) {
	steps, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "steps_total",
		Help: "Benchmark steps executed, by platform and status.",
	}, []string{"platform", "status"})
	if err != nil {
		return nil, fmt.Errorf("registering steps counter: %w", err)
	}

	duration, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scenario_duration_seconds",
		Help: "Wall clock duration of the most recent scenario run per platform.",
	}, []string{"platform"})
	if err != nil {
		return nil, fmt.Errorf("registering scenario duration gauge: %w", err)
	}

	scores, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "scores_total",
		Help: "Scenario runs scored, by platform.",
	}, []string{"platform"})
	if err != nil {
		return nil, fmt.Errorf("registering scores counter: %w", err)
	}

	return &Recorder{
		steps:            steps,
		scenarioDuration: duration,
		scores:           scores,
	}, nil
}

// ObserveStep counts one executed step.
func (r *Recorder) ObserveStep(platformID string, status scenario.StepStatus) {
	r.steps.With(prometheus.Labels{
		"platform": platformID,
		"status":   status.String(),
	}).Inc()
}

// ObserveScenario records how long a scenario run took.
func (r *Recorder) ObserveScenario(platformID string, duration time.Duration) {
	r.scenarioDuration.With(prometheus.Labels{"platform": platformID}).Set(duration.Seconds())
}

// ObserveScore counts one scored scenario run.
func (r *Recorder) ObserveScore(platformID string) {
	r.scores.With(prometheus.Labels{"platform": platformID}).Inc()
}
