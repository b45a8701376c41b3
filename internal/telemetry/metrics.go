// Package telemetry exposes prometheus collectors describing scheme runs.
package telemetry

import (
	"github.com/arya-analytics/swimcheck/internal/event"
	"github.com/prometheus/client_golang/prometheus"
	"time"
)

const namespace = "swimcheck"

// Metrics holds the collectors of a validator. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	RunsTotal   *prometheus.CounterVec
	EventsTotal *prometheus.CounterVec
	StepsTotal  *prometheus.CounterVec
	RunDuration prometheus.Histogram
}

// New creates the collectors and registers them with registrar.
func New(registrar prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of finished scheme runs.",
			},
			[]string{"outcome"},
		),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Total number of protocol events observed by scheme runs.",
			},
			[]string{"type", "direction"},
		),
		StepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_completed_total",
				Help:      "Total number of completed scheme steps.",
			},
			[]string{"step"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of scheme runs.",
			// 10ms .. ~40s
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 13),
		}),
	}
	registrar.MustRegister(m.RunsTotal, m.EventsTotal, m.StepsTotal, m.RunDuration)
	return m
}

func (m *Metrics) ObserveEvent(e event.Event) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(string(e.Type), string(e.Direction)).Inc()
}

func (m *Metrics) ObserveStep(name string) {
	if m == nil {
		return
	}
	m.StepsTotal.WithLabelValues(name).Inc()
}

func (m *Metrics) ObserveRun(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
}
