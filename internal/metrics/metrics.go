// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from a warehouse run.
//
// A global, pluggable backend defaults to a no-op implementation, so callers
// can record metrics unconditionally. Concrete systems (Prometheus
// Pushgateway, Datadog) live in subpackages and are installed with SetBackend.
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	TableTotal    = "warehouse_table_total"
	TableDuration = "warehouse_table_duration_seconds"
	RowsTotal     = "warehouse_rows_total"
	BatchesTotal  = "warehouse_batches_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordTable measures latency and success/failure of one table transform.
func RecordTable(job, table string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"table":  table,
		"status": status,
	}

	backend.IncCounter(TableTotal, 1, lbls)
	backend.ObserveHistogram(TableDuration, d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given job and kind.
//
// Kinds used by the runner:
//   - "read"      rows parsed from source extracts
//   - "skipped"   malformed source rows dropped by the parser
//   - "written"   rows written to output tables
//   - "loaded"    rows loaded into the warehouse database
//   - "dates"     distinct dates in the date dimension
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments a batch-level counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}
