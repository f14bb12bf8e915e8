// Package metrics carries the Prometheus instrumentation for a
// running manager: sync operation outcomes, plan durations, event bus
// activity and backup cache writes. Collectors register against an
// injected Registerer so hosts and tests can isolate them.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/easelab/easel/pkg/domain"
	"github.com/easelab/easel/pkg/engine"
	"github.com/easelab/easel/pkg/notify"
	"github.com/easelab/easel/pkg/ports"
)

// Metrics owns the collectors for one manager instance.
type Metrics struct {
	syncOps            *prometheus.CounterVec
	syncDuration       prometheus.Histogram
	events             *prometheus.CounterVec
	subscriberFailures prometheus.Counter
	backupWrites       *prometheus.CounterVec
}

// New builds the collectors and registers them on reg. A nil reg
// falls back to the process-wide default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		syncOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_sync_operations_total",
				Help: "Sync operations executed against the remote service",
			},
			[]string{"kind", "outcome"},
		),
		syncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "easel_sync_duration_seconds",
				Help: "Wall time of executed sync plans",
			},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_events_total",
				Help: "Publish attempts on the event bus",
			},
			[]string{"event", "outcome"},
		),
		subscriberFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "easel_event_subscriber_failures_total",
				Help: "Event subscribers that returned an error or panicked",
			},
		),
		backupWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_backup_writes_total",
				Help: "Write-through attempts against the backup store",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.syncOps, m.syncDuration, m.events, m.subscriberFailures, m.backupWrites)
	return m
}

// ManagerOptions returns the engine options that bind these collectors
// to a manager.
func (m *Metrics) ManagerOptions() []engine.Option {
	return []engine.Option{
		engine.WithOpObserver(m.ObserveOp),
		engine.WithReportObserver(m.ObserveReport),
	}
}

// NotifierOptions returns the bus options that bind these collectors
// to a notifier.
func (m *Metrics) NotifierOptions() []notify.Option {
	return []notify.Option{
		notify.WithPublishHook(m.ObserveEvent),
		notify.WithErrorSink(m.ObserveSubscriberFailure),
	}
}

// ObserveOp records one executed sync operation.
func (m *Metrics) ObserveOp(kind domain.OpKind, err error) {
	m.syncOps.WithLabelValues(string(kind), outcome(err)).Inc()
}

// ObserveReport records the wall time of an executed plan.
func (m *Metrics) ObserveReport(r *engine.Report) {
	m.syncDuration.Observe(r.Duration.Seconds())
}

// ObserveEvent records one publish attempt.
func (m *Metrics) ObserveEvent(event string, delivered bool) {
	result := "delivered"
	if !delivered {
		result = "refused"
	}
	m.events.WithLabelValues(event, result).Inc()
}

// ObserveSubscriberFailure records one failed subscriber delivery.
func (m *Metrics) ObserveSubscriberFailure(error) {
	m.subscriberFailures.Inc()
}

// InstrumentStore wraps store so every write is counted by outcome.
// Reads and deletes pass through untouched.
func (m *Metrics) InstrumentStore(store ports.BackupStore) ports.BackupStore {
	if store == nil {
		return nil
	}
	return &instrumentedStore{BackupStore: store, writes: m.backupWrites}
}

type instrumentedStore struct {
	ports.BackupStore
	writes *prometheus.CounterVec
}

func (s *instrumentedStore) Set(ctx context.Context, key string, value []byte) error {
	err := s.BackupStore.Set(ctx, key, value)
	s.writes.WithLabelValues(outcome(err)).Inc()
	return err
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
