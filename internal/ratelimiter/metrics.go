package ratelimiter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors fed by a limiter.
type Metrics struct {
	DecisionsTotal *prometheus.CounterVec
	EffectiveCount prometheus.Gauge
	Remaining      prometheus.Gauge
}

// NewMetrics creates and registers the limiter metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		DecisionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ratelimiter",
				Name:      "decisions_total",
				Help:      "Total number of admission decisions",
			},
			[]string{"state"}, // state=allow/deny
		),
		EffectiveCount: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ratelimiter",
				Name:      "effective_count",
				Help:      "Weighted request count of the sliding window at the last observation",
			},
		),
		Remaining: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ratelimiter",
				Name:      "remaining",
				Help:      "Estimated remaining admissions at the last observation",
			},
		),
	}
}

func (m *Metrics) observeDecision(r *Result) {
	if m == nil {
		return
	}
	if r.State == Allow {
		m.DecisionsTotal.WithLabelValues("allow").Inc()
		m.Remaining.Set(float64(r.Remaining))
		return
	}
	m.DecisionsTotal.WithLabelValues("deny").Inc()
	m.Remaining.Set(0)
}

func (m *Metrics) observeStatus(st *Status) {
	if m == nil {
		return
	}
	m.EffectiveCount.Set(st.EffectiveCount)
	m.Remaining.Set(float64(st.Remaining))
}
