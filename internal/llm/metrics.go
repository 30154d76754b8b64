package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts gateway calls by operation and outcome.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the gateway collectors and registers them on reg when
// reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "claritycanvas",
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "AI gateway calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "claritycanvas",
			Subsystem: "ai",
			Name:      "request_duration_seconds",
			Help:      "Latency of dispatched AI gateway calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

func (m *Metrics) observe(op, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, outcome).Inc()
	if !started.IsZero() {
		m.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	}
}
