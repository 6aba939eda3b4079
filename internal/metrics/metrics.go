// Package metrics records operational metrics from the cart-audit pipeline
// through a small backend-agnostic interface.
//
// The default backend is a no-op, so instrumentation is always safe to call.
// Concrete backends live in subpackages (see promfile) and are installed by
// the command with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the Record helpers.
const (
	StepTotal           = "cartaudit_step_total"
	StepDurationSeconds = "cartaudit_step_duration_seconds"
	RowsTotal           = "cartaudit_rows_total"
	WavesTotal          = "cartaudit_waves_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush writes out collected metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of a pipeline step (load, aggregate,
// reconcile, export) and observes its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a row-level counter for the given job and kind.
//
// Kinds used by the pipeline:
//   - "dispatch_loaded", "picklist_loaded"
//   - "picklist_skipped" (rows too short for the picklist code)
//   - "reconciled", "dispatch_dropped" (empty or duplicate route codes)
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordWaves increments the wave counter for the given job.
func RecordWaves(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(WavesTotal, float64(delta), Labels{
		"job": job,
	})
}
