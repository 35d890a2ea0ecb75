package route

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for dispatch and the limiter.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	busy       prometheus.Counter
	inFlight   prometheus.Gauge
}

// NewMetrics registers the route collectors with reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "route",
			Name:      "dispatches_total",
			Help:      "Dispatched requests by verb, action and outcome",
		}, []string{"verb", "action", "outcome"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "route",
			Name:      "dispatch_duration_seconds",
			Help:      "Dispatch latency in seconds, including grid resolution",
			Buckets:   prometheus.DefBuckets,
		}, []string{"verb"}),

		busy: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "route",
			Name:      "limiter_rejections_total",
			Help:      "Requests rejected because no dispatch slot freed up in time",
		}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "route",
			Name:      "dispatches_in_flight",
			Help:      "Requests currently holding a dispatch slot",
		}),
	}
}

// observe records one finished dispatch. action must already be bounded
// to registered names; unmatched actions arrive as "unmatched".
func (m *Metrics) observe(verb Verb, action, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(string(verb), action, outcome).Inc()
	m.duration.WithLabelValues(string(verb)).Observe(d.Seconds())
}

func (m *Metrics) rejected() {
	if m == nil {
		return
	}
	m.busy.Inc()
}

func (m *Metrics) setInFlight(n int) {
	if m == nil {
		return
	}
	m.inFlight.Set(float64(n))
}
