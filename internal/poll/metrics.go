package poll

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch results recorded by Metrics.
const (
	resultOK    = "ok"
	resultError = "error"
	resultStale = "stale"
)

// Metrics records fetch outcomes for every handler sharing it. A nil *Metrics
// records nothing.
type Metrics struct {
	fetches  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	version  *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hordewatch",
			Subsystem: "poll",
			Name:      "fetches_total",
			Help:      "Fetch attempts by handler and result (ok, error, stale).",
		}, []string{"handler", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hordewatch",
			Subsystem: "poll",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent in a single fetch, including discarded ones.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
		version: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hordewatch",
			Subsystem: "poll",
			Name:      "version",
			Help:      "Current update counter of each handler.",
		}, []string{"handler"}),
	}
	if reg != nil {
		reg.MustRegister(m.fetches, m.duration, m.version)
	}
	return m
}

func (m *Metrics) observe(handler, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(handler, result).Inc()
	m.duration.WithLabelValues(handler).Observe(took.Seconds())
}

func (m *Metrics) setVersion(handler string, version uint64) {
	if m == nil {
		return
	}
	m.version.WithLabelValues(handler).Set(float64(version))
}
