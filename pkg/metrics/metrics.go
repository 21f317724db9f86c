// Package metrics provides Prometheus instrumentation for strata.
//
// All metrics are registered on the default registry at init time through
// promauto, so exposing them only requires serving promhttp.Handler.
//
// # Basic Usage
//
//	// Count rows turned into columns
//	metrics.RowsIngested.Add(float64(len(rows)))
//
//	// Track materialization latency
//	timer := metrics.NewTimer("materialize")
//	cols, err := m.Rows(rows, parsers, labels)
//	metrics.MaterializeLatency.Observe(timer.Stop().Seconds())
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsIngested counts rows materialized into columns.
	RowsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strata_rows_ingested_total",
			Help: "Total number of rows materialized into columns",
		},
	)

	// BatchesMaterialized counts materializer calls by outcome.
	// Labels: status (success/failure)
	BatchesMaterialized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_batches_materialized_total",
			Help: "Total number of row batches materialized",
		},
		[]string{"status"},
	)

	// ParseSubstitutions counts scalar fields that failed to parse and were
	// replaced by zero.
	// Labels: kind (parser kind)
	ParseSubstitutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_parse_substitutions_total",
			Help: "Scalar fields that failed to parse and were stored as zero",
		},
		[]string{"kind"},
	)

	// EncodingFailures counts text fields rejected for invalid UTF-8.
	// Labels: kind (utf8/dict)
	EncodingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_encoding_failures_total",
			Help: "Text fields rejected because they are not valid UTF-8",
		},
		[]string{"kind"},
	)

	// MaterializeLatency tracks how long one batch takes to materialize, in
	// seconds.
	MaterializeLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strata_materialize_duration_seconds",
			Help:    "Time spent turning one batch of rows into columns",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	// DictionarySize tracks the number of distinct strings per enum column.
	// Labels: column (column name)
	DictionarySize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "strata_dictionary_entries",
			Help: "Distinct strings held by an enum column dictionary",
		},
		[]string{"column"},
	)

	// QueryLatency tracks table query latency in seconds.
	// Labels: operation (column_values/column_raw_content/count_group_by/statistics)
	QueryLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strata_query_duration_seconds",
			Help:    "Table query latency",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"operation"},
	)

	// TableRows tracks the row count of the most recently loaded table.
	// Labels: table
	TableRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "strata_table_rows",
			Help: "Rows held by a loaded table",
		},
		[]string{"table"},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the name the timer was created with.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It may be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveQuery records the elapsed time of t under the query operation label
// matching the timer name.
func (t *Timer) ObserveQuery() {
	QueryLatency.WithLabelValues(t.name).Observe(t.Stop().Seconds())
}
