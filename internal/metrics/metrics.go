// Package metrics records operational metrics for a load run behind a small,
// backend-agnostic interface. The default backend is a no-op, so recording is
// always safe; cmd/movieload installs a Pushgateway or DogStatsD backend when
// configured.
//
// Metric names:
//
//	movieload_step_total{job,step,status}
//	movieload_step_duration_seconds{job,step,status}
//	movieload_rows_total{job,sink,target,kind}
//	movieload_batches_total{job,sink}
//	movieload_indexes_total{job,sink,status}
package metrics

import (
	"sync"
	"time"
)

const (
	StepTotal      = "movieload_step_total"
	StepDuration   = "movieload_step_duration_seconds"
	RowsTotal      = "movieload_rows_total"
	BatchesTotal   = "movieload_batches_total"
	IndexesTotal   = "movieload_indexes_total"
	defaultJobName = "movieload"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
	job             = defaultJobName
)

// SetBackend installs a concrete backend. Passing nil restores the no-op
// backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

// SetJob sets the job label attached to every metric.
func SetJob(name string) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		name = defaultJobName
	}
	job = name
}

func current() (Backend, string) {
	mu.RLock()
	defer mu.RUnlock()
	return backend, job
}

// Flush delegates to the current backend.
func Flush() error {
	b, _ := current()
	return b.Flush()
}

// RecordStep counts one execution of a pipeline step and its duration.
// Steps are "clean", "prepare", "relational" and "document".
func RecordStep(step string, err error, d time.Duration) {
	b, j := current()
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": j, "step": step, "status": status}
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows adds delta to the row counter for a sink target. Typical kinds
// are "inserted" and "rejected".
func RecordRows(sink, target, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	b, j := current()
	b.IncCounter(RowsTotal, float64(delta), Labels{"job": j, "sink": sink, "target": target, "kind": kind})
}

// RecordBatches counts flushed batches for a sink.
func RecordBatches(sink string, delta int64) {
	if delta <= 0 {
		return
	}
	b, j := current()
	b.IncCounter(BatchesTotal, float64(delta), Labels{"job": j, "sink": sink})
}

// RecordIndex counts one index build; status is "created", "skipped" or
// "failed".
func RecordIndex(sink, status string) {
	b, j := current()
	b.IncCounter(IndexesTotal, 1, Labels{"job": j, "sink": sink, "status": status})
}
