package promfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"cartaudit/internal/metrics"
)

// readCounterValue reads the current value of a Counter for assertions in tests.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend("audit", ""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	b, err := NewBackend("", filepath.Join(t.TempDir(), "x.prom"))
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.job != "cartaudit" {
		t.Fatalf("job=%q want default cartaudit", b.job)
	}
}

func TestBackendRecordsAndFlushes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cartaudit.prom")
	b, err := NewBackend("nightly", path)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "load", "status": "success"})
	b.ObserveHistogram(metrics.StepDurationSeconds, 0.25, metrics.Labels{"step": "load", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 12, metrics.Labels{"kind": "reconciled"})
	b.IncCounter(metrics.WavesTotal, 1, nil)
	b.IncCounter("unknown_total", 99, nil)
	b.ObserveHistogram("unknown_seconds", 1, nil)

	if got := readCounterValue(t, b.rowCounter.WithLabelValues("reconciled")); got != 12 {
		t.Fatalf("rows reconciled=%v want 12", got)
	}
	if got := readCounterValue(t, b.waveCounter); got != 1 {
		t.Fatalf("waves=%v want 1", got)
	}

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(raw)
	for _, want := range []string{
		`cartaudit_rows_total{job="nightly",kind="reconciled"} 12`,
		`cartaudit_waves_total{job="nightly"} 1`,
		`cartaudit_step_total{job="nightly",status="success",step="load"} 1`,
		`cartaudit_step_duration_seconds_count{job="nightly",status="success",step="load"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("textfile missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "unknown") {
		t.Fatalf("unknown metric leaked into textfile:\n%s", out)
	}
}

func TestBackendViaRecordHelpers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helpers.prom")
	b, err := NewBackend("audit", path)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	metrics.SetBackend(b)
	t.Cleanup(func() { metrics.SetBackend(noop{}) })

	metrics.RecordStep("audit", "aggregate", errors.New("boom"), 10*time.Millisecond)
	metrics.RecordRow("audit", "picklist_skipped", 2)
	if err := metrics.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := readCounterValue(t, b.stepCounter.WithLabelValues("aggregate", "failure")); got != 1 {
		t.Fatalf("failure steps=%v want 1", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("textfile not written: %v", err)
	}
}

type noop struct{}

func (noop) IncCounter(string, float64, metrics.Labels)       {}
func (noop) ObserveHistogram(string, float64, metrics.Labels) {}
func (noop) Flush() error                                     { return nil }

func TestFlushFailsForMissingDir(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("audit", filepath.Join(t.TempDir(), "nope", "x.prom"))
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if err := b.Flush(); err == nil {
		t.Fatalf("expected flush error for missing directory")
	}
}
