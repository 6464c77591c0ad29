// Package metrics exposes the row counters of running transformations as
// Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/streamgridgo/internal/executor"
	"github.com/vk/streamgridgo/internal/step"
)

// Source is a run whose steps can be sampled while it executes.
type Source interface {
	RunID() string
	Snapshot() []executor.StepResult
}

// Collector reports per-step counters of the tracked run at scrape time and
// aggregates finished runs.
type Collector struct {
	registry *prometheus.Registry

	mu     sync.RWMutex
	source Source

	lines   *prometheus.Desc
	running *prometheus.Desc

	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
}

var stepLabels = []string{"run_id", "step", "type"}

// NewCollector creates a collector registered on its own registry.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		lines: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "step", "lines"),
			"Rows handled by a step, by kind",
			append(stepLabels, "kind"), nil,
		),
		running: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "step", "running"),
			"1 while the step is running",
			stepLabels, nil,
		),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished transformation runs by outcome",
		}, []string{"transformation", "status"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of transformation runs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transformation"}),
	}
	c.registry.MustRegister(c, c.RunsTotal, c.RunDuration)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Track makes src the run sampled on scrape. A nil src stops sampling.
func (c *Collector) Track(src Source) {
	c.mu.Lock()
	c.source = src
	c.mu.Unlock()
}

// ObserveResult records a finished run.
func (c *Collector) ObserveResult(transformation string, r *executor.Result) {
	c.RunsTotal.WithLabelValues(transformation, Status(r)).Inc()
	c.RunDuration.WithLabelValues(transformation).Observe(r.Elapsed.Seconds())
}

// Status names the outcome of a run.
func Status(r *executor.Result) string {
	switch {
	case r.Failed:
		return "failed"
	case r.Stopped:
		return "stopped"
	default:
		return "finished"
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.lines
	ch <- c.running
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	src := c.source
	c.mu.RUnlock()
	if src == nil {
		return
	}

	runID := src.RunID()
	for _, s := range src.Snapshot() {
		labels := []string{runID, s.Name, s.TypeID}
		for _, kv := range lineKinds(s.Stats) {
			ch <- prometheus.MustNewConstMetric(c.lines, prometheus.CounterValue, float64(kv.n), append(labels, kv.kind)...)
		}
		running := 0.0
		if s.State == step.Running {
			running = 1
		}
		ch <- prometheus.MustNewConstMetric(c.running, prometheus.GaugeValue, running, labels...)
	}
}

type lineKind struct {
	kind string
	n    int64
}

func lineKinds(s step.Stats) []lineKind {
	return []lineKind{
		{"read", s.LinesRead},
		{"written", s.LinesWritten},
		{"input", s.LinesInput},
		{"output", s.LinesOutput},
		{"updated", s.LinesUpdated},
		{"rejected", s.LinesRejected},
		{"errors", s.Errors},
	}
}
