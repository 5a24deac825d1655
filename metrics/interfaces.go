// Package metrics instruments benchmark runs with Prometheus-compatible
// metrics. Two registries implement the same Registry surface: a push
// registry for one-shot CLI runs (remote write, since a short-lived process
// is never scraped) and a scrape registry for scheduled mode, where the
// process lives long enough to expose /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Gauge records a value that can move in both directions, such as the
// duration of the most recent scenario run.
type Gauge interface {
	Set(float64)
}

// Counter records a monotonically increasing value, such as executed steps.
type Counter interface {
	Inc()
	// Add panics if the value is negative.
	Add(float64)
}

// GaugeVec partitions a Gauge by labels.
type GaugeVec interface {
	With(prometheus.Labels) Gauge
}

// CounterVec partitions a Counter by labels.
type CounterVec interface {
	With(prometheus.Labels) Counter
}

// Registry creates and registers labeled metrics. Recorder is the only
// consumer, so the surface is just the vec constructors it needs.
type Registry interface {
	NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error)
	NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error)
}
