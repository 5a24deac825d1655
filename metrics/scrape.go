package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ScrapeRegistry backs scheduled mode: benchmark metrics accumulate in a
// Prometheus registry and are exposed through Handler for scraping between
// runs. The prefix becomes the namespace of every registered metric, so the
// series names match what push mode produces.
type ScrapeRegistry struct {
	prom   *prometheus.Registry
	prefix string
}

// NewScrapeRegistry builds a registry with the standard Go and process
// collectors already attached.
func NewScrapeRegistry(prefix string) (*ScrapeRegistry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("registering go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("registering process collector: %w", err)
	}
	return &ScrapeRegistry{prom: reg, prefix: prefix}, nil
}

// Handler serves the metrics endpoint.
func (r *ScrapeRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (r *ScrapeRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error) {
	if opts.Namespace == "" {
		opts.Namespace = r.prefix
	}
	vec := prometheus.NewGaugeVec(opts, labels)
	if err := r.prom.Register(vec); err != nil {
		return nil, fmt.Errorf("registering gauge vec %q: %w", opts.Name, err)
	}
	return promGaugeVec{vec}, nil
}

func (r *ScrapeRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	if opts.Namespace == "" {
		opts.Namespace = r.prefix
	}
	vec := prometheus.NewCounterVec(opts, labels)
	if err := r.prom.Register(vec); err != nil {
		return nil, fmt.Errorf("registering counter vec %q: %w", opts.Name, err)
	}
	return promCounterVec{vec}, nil
}

// Thin adapters from the prometheus client types to the package interfaces.

type promGaugeVec struct {
	vec *prometheus.GaugeVec
}

func (v promGaugeVec) With(labels prometheus.Labels) Gauge {
	return v.vec.With(labels)
}

type promCounterVec struct {
	vec *prometheus.CounterVec
}

func (v promCounterVec) With(labels prometheus.Labels) Counter {
	return v.vec.With(labels)
}
