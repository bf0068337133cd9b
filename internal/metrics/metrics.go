// Package metrics is the minimal instrumentation surface the pipeline emits
// to. Core code depends only on Backend; concrete backends (Datadog,
// Prometheus Pushgateway) live in subpackages and are selected at startup
// with SetBackend. The default backend discards everything, so code can emit
// unconditionally.
//
// Metric names and labels used across this repository:
//
//	prep_step_total                       counter   step, status
//	prep_step_duration_seconds            histogram step, status
//	prep_rows_total                       counter   kind
//	prep_runs_total                       counter   -
//	prep_http_requests_total              counter   status
//	prep_http_errors_total                counter   status
//	prep_http_request_duration_seconds    histogram status
//	prep_http_download_bytes              histogram status
package metrics

import (
	"strconv"
	"sync"
	"time"
)

// Labels attach dimensions to a metric sample.
type Labels map[string]string

// Backend receives metric samples. Implementations must be safe for
// concurrent use; the pipeline emits from worker goroutines.
type Backend interface {
	// IncCounter adds delta to a named counter. Non-positive deltas are
	// ignored.
	IncCounter(name string, delta float64, labels Labels)

	// ObserveHistogram records one sample of a named distribution. Negative
	// values are ignored.
	ObserveHistogram(name string, value float64, labels Labels)

	// Flush submits buffered samples. Backends that submit eagerly return
	// nil.
	Flush() error
}

// Nop discards every sample. It is the default backend.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}
func (Nop) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = Nop{}
)

// SetBackend installs the process-wide backend. A nil backend restores the
// nop default. Call it once at startup, before the pipeline runs.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = Nop{}
		return
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter adds delta to a named counter on the installed backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram records one sample on the installed backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush submits buffered samples on the installed backend.
func Flush() error {
	return current().Flush()
}

// RecordStep captures one pipeline step: a count and a duration sample,
// labeled with the step name and "ok" or "error".
func RecordStep(step string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	l := Labels{"step": step, "status": status}
	IncCounter("prep_step_total", 1, l)
	ObserveHistogram("prep_step_duration_seconds", elapsed.Seconds(), l)
}

// RecordRows adds to the row counter for a kind ("loaded", "output", ...).
func RecordRows(kind string, n int) {
	if n <= 0 {
		return
	}
	IncCounter("prep_rows_total", float64(n), Labels{"kind": kind})
}

// RecordHTTP captures one fetch attempt: a request count, an error count
// when err is non-nil or the status is an HTTP error, and duration and size
// samples. A zero statusCode (transport failure) records as status "error".
func RecordHTTP(statusCode int, err error, elapsed time.Duration, downloadBytes int64) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	l := Labels{"status": status}

	IncCounter("prep_http_requests_total", 1, l)
	if err != nil || statusCode >= 400 {
		IncCounter("prep_http_errors_total", 1, l)
	}
	ObserveHistogram("prep_http_request_duration_seconds", elapsed.Seconds(), l)
	if downloadBytes >= 0 {
		ObserveHistogram("prep_http_download_bytes", float64(downloadBytes), l)
	}
}
