// Package metrics provides Prometheus instrumentation for hepconv runs.
//
// # Overview
//
// Every counter is registered on the default registry at package init:
//   - events read and written, labelled by storage format
//   - events vetoed by the muon filter
//   - rows seen by the filter scan, labelled by outcome
//   - run duration, labelled by driver mode
//
// # Basic Usage
//
//	metrics.EventsRead.WithLabelValues("parquet").Inc()
//
//	timer := metrics.NewTimer("convert")
//	runConversion()
//	timer.ObserveDuration()
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan outcomes
const (
	OutcomeAccepted = "accepted"
	OutcomeSkipped  = "skipped"
)

var (
	// EventsRead tracks events pulled from a reader.
	// Labels: format (parquet/sqlite)
	EventsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hepconv_events_read_total",
			Help: "Total number of events read",
		},
		[]string{"format"},
	)

	// EventsWritten tracks events persisted by a writer.
	// Labels: format (avro/sqlite)
	EventsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hepconv_events_written_total",
			Help: "Total number of events written",
		},
		[]string{"format"},
	)

	// EventsVetoed tracks events rejected by the muon veto during analysis
	EventsVetoed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hepconv_events_vetoed_total",
			Help: "Total number of events vetoed because a candidate is a muon",
		},
	)

	// ScanRows tracks rows visited by the filter scan.
	// Labels: outcome (accepted/skipped)
	ScanRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hepconv_scan_rows_total",
			Help: "Total number of rows visited by the filter scan",
		},
		[]string{"outcome"},
	)

	// RunDuration tracks wall time of complete driver runs.
	// Labels: mode (convert/analyse/scan)
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hepconv_run_duration_seconds",
			Help:    "Duration of a driver run in seconds",
			Buckets: []float64{0.01, 0.1, 1, 10, 60, 300, 1800},
		},
		[]string{"mode"},
	)
)

// Timer measures a run for RunDuration
type Timer struct {
	start time.Time
	mode  string
}

// NewTimer starts timing a run in the given mode
func NewTimer(mode string) *Timer {
	return &Timer{
		start: time.Now(),
		mode:  mode,
	}
}

// Elapsed returns the time since the timer started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in RunDuration and returns it
func (t *Timer) ObserveDuration() time.Duration {
	d := t.Elapsed()
	RunDuration.WithLabelValues(t.mode).Observe(d.Seconds())
	return d
}
