package observability

import (
	"context"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of an editor.
type Metrics struct {
	Dispatches *prometheus.CounterVec
	NoOps      *prometheus.CounterVec
	FollowUps  prometheus.Counter
	Messages   *prometheus.CounterVec
	Cells      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_dispatches_total",
			Help: "Total number of dispatched actions, follow-ups included.",
		}, []string{"kind"}),
		NoOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_noop_dispatches_total",
			Help: "Dispatched actions that left the state unchanged.",
		}, []string{"kind"}),
		FollowUps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "folio_followups_total",
			Help: "Actions dispatched as follow-ups of another action.",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_messages_total",
			Help: "Outbound messages delivered to the execution host.",
		}, []string{"kind"}),
		Cells: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "folio_cells",
			Help: "Number of cells in the document.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Dispatches, m.NoOps, m.FollowUps, m.Messages, m.Cells)
	}
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			kind := string(e.Kind)
			m.Dispatches.WithLabelValues(kind).Inc()
			if !e.Changed {
				m.NoOps.WithLabelValues(kind).Inc()
			}
			if e.Depth > 0 {
				m.FollowUps.Inc()
			}
			m.Cells.Set(float64(e.Cells))
		},
		OnMessage: func(_ context.Context, e *domain.MessageEvent) {
			m.Messages.WithLabelValues(string(e.Kind)).Inc()
		},
	}
}
