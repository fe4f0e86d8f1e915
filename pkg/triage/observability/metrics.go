// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the triage engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the dispatch pipeline.
type Metrics struct {
	// Intake metrics
	TicketsProcessedTotal    *prometheus.CounterVec
	DuplicateDeliveriesTotal prometheus.Counter
	MalformedRecordsTotal    prometheus.Counter

	// Classification metrics
	ClassifyLatencySeconds *prometheus.HistogramVec
	ClassifyFailuresTotal  prometheus.Counter
	BreakerOpen            prometheus.Gauge

	// Storm metrics
	StormIncidentsTotal         prometheus.Counter
	StormSuppressedTicketsTotal prometheus.Counter

	// Dispatch metrics
	DispatchQueueDepth prometheus.Gauge
	AssignmentsTotal   *prometheus.CounterVec

	// Notification metrics
	NotificationsTotal *prometheus.CounterVec
}

// DefaultMetrics creates metrics on the default registerer.
func DefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// NewMetrics creates a new set of triage metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TicketsProcessedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_tickets_processed_total",
				Help: "Tickets entering the per-ticket pipeline, by outcome",
			},
			[]string{"status"},
		),
		DuplicateDeliveriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "triage_duplicate_deliveries_total",
				Help: "Deliveries dropped because the idempotency lock was held",
			},
		),
		MalformedRecordsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "triage_malformed_records_total",
				Help: "Queue payloads dropped as unparsable",
			},
		),
		ClassifyLatencySeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "triage_classify_latency_seconds",
				Help:    "Classification call latency by model",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1, 2.5, 5},
			},
			[]string{"model"},
		),
		ClassifyFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "triage_classify_failures_total",
				Help: "Classification calls that failed or timed out",
			},
		),
		BreakerOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "triage_circuit_breaker_open",
				Help: "1 while the classification circuit breaker is open",
			},
		),
		StormIncidentsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "triage_storm_incidents_total",
				Help: "Master incidents created by the storm detector",
			},
		),
		StormSuppressedTicketsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "triage_storm_suppressed_tickets_total",
				Help: "Tickets consolidated into a master incident instead of dispatched",
			},
		),
		DispatchQueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "triage_dispatch_queue_depth",
				Help: "Current priority dispatch queue depth",
			},
		),
		AssignmentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_assignments_total",
				Help: "Agent assignments, including the queued sentinel",
			},
			[]string{"agent"},
		),
		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_notifications_total",
				Help: "Outbound notifications by kind",
			},
			[]string{"kind"},
		),
	}
}
