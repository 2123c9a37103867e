// Package metrics provides Prometheus metrics for dnsaudit runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Test outcome label values for TestsTotal.
const (
	TestCompleted = "completed"
	TestFailed    = "failed"
	TestSkipped   = "skipped"
)

// Metrics holds all Prometheus metrics of one audit run. Collectors live on
// a private registry so repeated construction in one process never collides.
type Metrics struct {
	registry *prometheus.Registry

	QueriesTotal    *prometheus.CounterVec
	QueryErrors     *prometheus.CounterVec
	QueryDuration   *prometheus.HistogramVec
	LookupRetries   prometheus.Counter
	ProbesTotal     *prometheus.CounterVec
	MismatchesTotal *prometheus.CounterVec
	BaselineDrift   *prometheus.CounterVec
	TestsTotal      *prometheus.CounterVec
	ReportsTotal    prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dnsaudit"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of DNS queries issued",
			},
			[]string{"protocol", "type"},
		),
		QueryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_errors_total",
				Help:      "Total number of DNS queries that failed at the protocol level",
			},
			[]string{"server"},
		),
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Duration of DNS query exchanges",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"protocol"},
		),
		LookupRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookup_retries_total",
				Help:      "Total number of retried nameserver hostname lookups",
			},
		),
		ProbesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolver_probes_total",
				Help:      "Total number of resolver health probes by outcome",
			},
			[]string{"resolver", "outcome"},
		),
		MismatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mismatches_total",
				Help:      "Total number of cross-nameserver mismatches found",
			},
			[]string{"test", "type"},
		),
		BaselineDrift: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "baseline_drift_total",
				Help:      "Total number of baseline drift events",
			},
			[]string{"test"},
		),
		TestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tests_total",
				Help:      "Total number of audit tests by result",
			},
			[]string{"result"},
		),
		ReportsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_total",
				Help:      "Total number of mismatch reports written",
			},
		),
	}
}

// Registry returns the registry holding the run's collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the collected metrics to path in the textfile
// collector format understood by node_exporter.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordQuery records a completed DNS query exchange.
func (m *Metrics) RecordQuery(protocol, qtype string, duration float64) {
	m.QueriesTotal.WithLabelValues(protocol, qtype).Inc()
	m.QueryDuration.WithLabelValues(protocol).Observe(duration)
}

// RecordQueryError records a protocol-level query failure.
func (m *Metrics) RecordQueryError(server string) {
	m.QueryErrors.WithLabelValues(server).Inc()
}

// RecordLookupRetry records one retried hostname lookup attempt.
func (m *Metrics) RecordLookupRetry() {
	m.LookupRetries.Inc()
}

// RecordProbe records a resolver health probe outcome.
func (m *Metrics) RecordProbe(resolver string, healthy bool) {
	outcome := "healthy"
	if !healthy {
		outcome = "unhealthy"
	}
	m.ProbesTotal.WithLabelValues(resolver, outcome).Inc()
}

// RecordMismatch records a cross-nameserver mismatch.
func (m *Metrics) RecordMismatch(test, qtype string) {
	m.MismatchesTotal.WithLabelValues(test, qtype).Inc()
}

// RecordDrift records a baseline drift event.
func (m *Metrics) RecordDrift(test string) {
	m.BaselineDrift.WithLabelValues(test).Inc()
}

// RecordTest records a finished audit test by result.
func (m *Metrics) RecordTest(result string) {
	m.TestsTotal.WithLabelValues(result).Inc()
}

// RecordReport records a written mismatch report.
func (m *Metrics) RecordReport() {
	m.ReportsTotal.Inc()
}
