package routing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tripxl/service-booking/internal/domain/route"
)

// Provider call outcomes used as metric labels.
const (
	outcomeOK          = "ok"
	outcomeError       = "error"
	outcomeStatus      = "bad_status"
	outcomeMalformed   = "malformed"
	outcomeRateLimited = "rate_limited"
	outcomeCacheHit    = "cache_hit"
)

// Metrics records which path route calculations took.
type Metrics struct {
	calculations    *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
}

// NewMetrics registers routing collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routing_calculations_total",
			Help: "Route calculations by provider and result source.",
		}, []string{"provider", "source"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "routing_provider_request_duration_seconds",
			Help:    "Routing provider call latency by outcome.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}, []string{"provider", "outcome"}),
	}
	reg.MustRegister(m.calculations, m.providerLatency)
	return m
}

func (m *Metrics) observeResult(provider string, source route.Source) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(provider, string(source)).Inc()
}

func (m *Metrics) observeProvider(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.providerLatency.WithLabelValues(provider, outcome).Observe(elapsed.Seconds())
}
