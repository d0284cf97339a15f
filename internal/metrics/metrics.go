// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the survey pipeline.
//
// A global, pluggable backend defaults to a no-op implementation, so the
// Record* helpers are always safe to call. Concrete metric systems live in
// subpackages (prompush, datadog) and are installed once at startup with
// SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	StepTotal    = "survey_step_total"
	StepDuration = "survey_step_duration_seconds"
	RecordsTotal = "survey_records_total"
	BatchesTotal = "survey_db_batches_total"
	TablesTotal  = "survey_tables_total"
	OutputBytes  = "survey_output_bytes"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Row kinds reported by the pipeline.
const (
	KindParsed            = "parsed"
	KindSkipped           = "skipped"
	KindNullRemoved       = "null_removed"
	KindDuplicatesRemoved = "duplicates_removed"
	KindClean             = "clean"
	KindInserted          = "inserted"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// SetGauge sets a point-in-time value.
	SetGauge(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) SetGauge(string, float64, Labels)         {}
func (nopBackend) Flush() error                             { return nil }

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

// Reset restores the no-op backend.
func Reset() {
	mu.Lock()
	backend = nopBackend{}
	mu.Unlock()
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep records latency and success/failure of one pipeline step.
func RecordStep(job, step string, err error, d time.Duration) {
	status := statusSuccess
	if err != nil {
		status = statusFailure
	}
	lbls := Labels{"job": job, "step": step, "status": status}

	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// Timed runs fn and records it as step.
func Timed(job, step string, fn func() error) error {
	start := time.Now()
	err := fn()
	RecordStep(job, step, err, time.Since(start))
	return err
}

// RecordRow increments the record counter for kind. Zero and negative deltas
// are dropped.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordBatches increments the database batch counter.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}

// RecordTables increments the derived table counter for a destination
// ("file" or "db").
func RecordTables(job, dest string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(TablesTotal, float64(delta), Labels{"job": job, "dest": dest})
}

// RecordOutputSize reports the byte size of the cleaned dataset in format.
func RecordOutputSize(job, format string, bytes int64) {
	current().SetGauge(OutputBytes, float64(bytes), Labels{"job": job, "format": format})
}
