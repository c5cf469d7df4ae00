package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the claim aggregation Prometheus metrics.
type Metrics struct {
	FanoutDuration    prometheus.Histogram
	SatellitesAbsent  *prometheus.CounterVec
	SearchesTotal     prometheus.Counter
	BatchCommitsTotal prometheus.Counter
}

// New creates and registers all claim metrics.
func New() *Metrics {
	return &Metrics{
		FanoutDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "coverdesk_claim_fanout_duration_seconds",
			Help:    "Time to assemble one claim from its satellite collections",
			Buckets: prometheus.DefBuckets,
		}),
		SatellitesAbsent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coverdesk_claim_satellites_absent_total",
			Help: "Satellite lookups that found no document, by satellite",
		}, []string{"satellite"}),
		SearchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverdesk_claim_searches_total",
			Help: "Claim search pages served",
		}),
		BatchCommitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverdesk_claim_batch_commits_total",
			Help: "Atomic claim write batches committed",
		}),
	}
}

// ObserveFanout records one completed satellite fan-out.
func (m *Metrics) ObserveFanout(d time.Duration) {
	m.FanoutDuration.Observe(d.Seconds())
}

// SatelliteAbsent records a satellite lookup that found nothing.
func (m *Metrics) SatelliteAbsent(satellite string) {
	m.SatellitesAbsent.WithLabelValues(satellite).Inc()
}
