// Package metrics exposes Prometheus counters for the sync engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Write kinds recorded by the flush coordinator.
const (
	WriteTaskUpdate = "task_update"
	WriteItemInsert = "item_insert"
	WriteItemUpdate = "item_update"
	WriteItemDelete = "item_delete"
)

// Reconcile outcomes.
const (
	ReconcileUnchanged = "unchanged"
	ReconcileApplied   = "applied"
	ReconcileDenied    = "permission_denied"
	ReconcileFailed    = "failed"
)

// Region event outcomes.
const (
	EventDelivered = "delivered"
	EventDropped   = "dropped"
)

// Metrics holds the engine's collectors.
type Metrics struct {
	flushWrites   *prometheus.CounterVec
	flushFailures prometheus.Counter
	flushDuration prometheus.Histogram
	reconciles    *prometheus.CounterVec
	regionEvents  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Use a fresh prometheus.NewRegistry() per engine so tests do not collide.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		flushWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotask_flush_writes_total",
				Help: "Rows written to the durable store by session flushes",
			},
			[]string{"kind"},
		),
		flushFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "geotask_flush_failures_total",
				Help: "Session flushes that did not persist every dirty entity",
			},
		),
		flushDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "geotask_flush_duration_seconds",
				Help:    "Wall time of session flushes",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
		),
		reconciles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotask_reconcile_total",
				Help: "Region reconciliations by outcome",
			},
			[]string{"outcome"},
		),
		regionEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotask_region_events_total",
				Help: "Region crossing events handled by the background correlator",
			},
			[]string{"type", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.flushWrites, m.flushFailures, m.flushDuration, m.reconciles, m.regionEvents)
	}
	return m
}

// FlushWrite counts one row written by a flush.
func (m *Metrics) FlushWrite(kind string) {
	if m == nil {
		return
	}
	m.flushWrites.WithLabelValues(kind).Inc()
}

// FlushFailed counts a flush that left entities unpersisted.
func (m *Metrics) FlushFailed() {
	if m == nil {
		return
	}
	m.flushFailures.Inc()
}

// ObserveFlush records how long a flush took.
func (m *Metrics) ObserveFlush(d time.Duration) {
	if m == nil {
		return
	}
	m.flushDuration.Observe(d.Seconds())
}

// Reconciled counts a reconcile attempt.
func (m *Metrics) Reconciled(outcome string) {
	if m == nil {
		return
	}
	m.reconciles.WithLabelValues(outcome).Inc()
}

// RegionEvent counts an event seen by the correlator.
func (m *Metrics) RegionEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.regionEvents.WithLabelValues(eventType, outcome).Inc()
}
