// Package promfile implements a metrics backend that writes a Prometheus
// text-format file for the node_exporter textfile collector.
//
// A cart audit is a short batch run, so nothing scrapes it. The collected
// counters and durations are written atomically to a .prom file on Flush.
package promfile

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"cartaudit/internal/metrics"
)

// Backend collects pipeline metrics into its own registry.
type Backend struct {
	path string
	job  string
	reg  *prometheus.Registry

	stepCounter  *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	rowCounter   *prometheus.CounterVec
	waveCounter  prometheus.Counter
}

// NewBackend returns a backend writing to path on Flush. job becomes a
// constant label on every series.
func NewBackend(job, path string) (*Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("promfile: textfile path is required")
	}
	if job == "" {
		job = "cartaudit"
	}
	constLabels := prometheus.Labels{"job": job}

	b := &Backend{
		path: path,
		job:  job,
		reg:  prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        metrics.StepTotal,
			Help:        "Pipeline step executions by step and status.",
			ConstLabels: constLabels,
		}, []string{"step", "status"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        metrics.StepDurationSeconds,
			Help:        "Pipeline step duration in seconds by step and status.",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"step", "status"}),
		rowCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        metrics.RowsTotal,
			Help:        "Row-level counts by kind (loaded, skipped, reconciled, dropped).",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		waveCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        metrics.WavesTotal,
			Help:        "Waves produced.",
			ConstLabels: constLabels,
		}),
	}

	for _, c := range []prometheus.Collector{b.stepCounter, b.stepDuration, b.rowCounter, b.waveCounter} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("promfile: register collector: %w", err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
	case metrics.WavesTotal:
		b.waveCounter.Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDurationSeconds {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush writes the registry to the textfile, replacing it atomically.
func (b *Backend) Flush() error {
	if err := prometheus.WriteToTextfile(b.path, b.reg); err != nil {
		return fmt.Errorf("promfile: write %s: %w", b.path, err)
	}
	return nil
}
