package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
)

// DefaultPushTimeout bounds each remote write request.
const DefaultPushTimeout = 30 * time.Second

// PushConfig configures a PushRegistry.
type PushConfig struct {
	// URL is the base URL of the remote write endpoint; "/api/v1/write" is
	// appended.
	URL string
	// Prefix is prepended to every metric name with an underscore.
	Prefix string
	// Job and Instance become labels on every sample.
	Job      string
	Instance string
	// Timeout bounds each push. Defaults to DefaultPushTimeout.
	Timeout time.Duration
}

// PushRegistry backs one-shot CLI runs: every metric update is written
// straight to a Prometheus remote write endpoint, since a short-lived
// process never gets scraped. Push failures are dropped; a benchmark run
// must not fail because the metrics backend is down.
type PushRegistry struct {
	writer *remoteWriter
}

// NewPushRegistry builds a registry that writes to the given endpoint.
func NewPushRegistry(cfg PushConfig) *PushRegistry {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultPushTimeout
	}
	return &PushRegistry{writer: &remoteWriter{
		url:      cfg.URL + "/api/v1/write",
		client:   &http.Client{Timeout: timeout},
		prefix:   cfg.Prefix,
		job:      cfg.Job,
		instance: cfg.Instance,
		timeout:  timeout,
	}}
}

func (r *PushRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error) {
	return &pushGaugeVec{writer: r.writer, name: opts.Name}, nil
}

func (r *PushRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	return &pushCounterVec{writer: r.writer, name: opts.Name}, nil
}

// remoteWriter sends single samples in Prometheus remote write format.
type remoteWriter struct {
	url      string
	client   *http.Client
	prefix   string
	job      string
	instance string
	timeout  time.Duration
}

func (w *remoteWriter) write(name string, value float64, labels map[string]string) error {
	req := &prompb.WriteRequest{
		Timeseries: []prompb.TimeSeries{w.sample(name, value, labels)},
	}
	data, err := proto.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling write request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url,
		bytes.NewReader(snappy.Encode(nil, data)))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (w *remoteWriter) sample(name string, value float64, labels map[string]string) prompb.TimeSeries {
	metricName := name
	if w.prefix != "" {
		metricName = w.prefix + "_" + name
	}

	promLabels := make([]prompb.Label, 0, len(labels)+3)
	promLabels = append(promLabels, prompb.Label{Name: "__name__", Value: metricName})
	if w.job != "" {
		promLabels = append(promLabels, prompb.Label{Name: "job", Value: w.job})
	}
	if w.instance != "" {
		promLabels = append(promLabels, prompb.Label{Name: "instance", Value: w.instance})
	}
	for k, v := range labels {
		promLabels = append(promLabels, prompb.Label{Name: k, Value: v})
	}

	return prompb.TimeSeries{
		Labels: promLabels,
		Samples: []prompb.Sample{{
			Value:     value,
			Timestamp: time.Now().UnixMilli(),
		}},
	}
}

type pushGaugeVec struct {
	writer *remoteWriter
	name   string
}

func (v *pushGaugeVec) With(labels prometheus.Labels) Gauge {
	return &pushGauge{writer: v.writer, name: v.name, labels: labels}
}

type pushGauge struct {
	writer *remoteWriter
	name   string
	labels map[string]string
}

func (g *pushGauge) Set(value float64) {
	_ = g.writer.write(g.name, value, g.labels)
}

// pushCounterVec keeps one counter per label set so Inc accumulates across
// calls within the process before each push.
type pushCounterVec struct {
	mu       sync.Mutex
	writer   *remoteWriter
	name     string
	counters map[string]*pushCounter
}

func (v *pushCounterVec) With(labels prometheus.Labels) Counter {
	key := labelKey(labels)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.counters == nil {
		v.counters = make(map[string]*pushCounter)
	}
	if c, ok := v.counters[key]; ok {
		return c
	}
	c := &pushCounter{writer: v.writer, name: v.name, labels: labels}
	v.counters[key] = c
	return c
}

type pushCounter struct {
	mu     sync.Mutex
	writer *remoteWriter
	name   string
	labels map[string]string
	value  float64
}

func (c *pushCounter) Inc() {
	c.Add(1)
}

func (c *pushCounter) Add(v float64) {
	c.mu.Lock()
	c.value += v
	value := c.value
	c.mu.Unlock()
	_ = c.writer.write(c.name, value, c.labels)
}

// labelKey renders labels in sorted order so the same label set always maps
// to the same counter.
func labelKey(labels prometheus.Labels) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
		b.WriteByte(',')
	}
	return b.String()
}
