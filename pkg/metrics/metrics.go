package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Codec operations.
const (
	OpSerialize = "serialize"
	OpParse     = "parse"
	OpLoad      = "load"
)

// Metrics holds the Prometheus metrics of the record engine. A nil *Metrics
// records nothing.
type Metrics struct {
	// Codec operation metrics
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	// Validation metrics
	violationsTotal *prometheus.CounterVec

	// Table row metrics
	rowsTotal *prometheus.CounterVec

	// Library metrics
	libraryComponents prometheus.Gauge
}

// NewMetrics creates the metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chemcomp_codec_operations_total",
				Help: "Total number of codec operations",
			},
			[]string{"operation", "status"},
		),

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chemcomp_codec_operation_duration_seconds",
				Help:    "Codec operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		violationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chemcomp_violations_total",
				Help: "Total number of validation violations",
			},
			[]string{"code", "severity"},
		),

		rowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chemcomp_rows_total",
				Help: "Total number of table rows serialized or parsed",
			},
			[]string{"table"},
		),

		libraryComponents: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chemcomp_library_components",
				Help: "Number of components held by the library",
			},
		),
	}
}

// RecordOperation records a codec operation
func (m *Metrics) RecordOperation(operation string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := statusSuccess
	if !success {
		status = statusError
	}

	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordViolation records one validation violation
func (m *Metrics) RecordViolation(code, severity string) {
	if m == nil {
		return
	}
	m.violationsTotal.WithLabelValues(code, severity).Inc()
}

// RecordRows records n rows of a table
func (m *Metrics) RecordRows(table string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.rowsTotal.WithLabelValues(table).Add(float64(n))
}

// SetLibraryComponents updates the library size
func (m *Metrics) SetLibraryComponents(n int) {
	if m == nil {
		return
	}
	m.libraryComponents.Set(float64(n))
}
