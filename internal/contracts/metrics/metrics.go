package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the contract resolution Prometheus metrics.
type Metrics struct {
	ResolveDuration prometheus.Histogram
	EdgesResolved   prometheus.Counter
	MainConflicts   prometheus.Counter
}

// New creates and registers all contract metrics.
func New() *Metrics {
	return &Metrics{
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "coverdesk_contract_resolve_duration_seconds",
			Help:    "Time to resolve a contract's member set",
			Buckets: prometheus.DefBuckets,
		}),
		EdgesResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverdesk_contract_edges_resolved_total",
			Help: "Relationship edges resolved to members",
		}),
		MainConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coverdesk_contract_main_member_conflicts_total",
			Help: "Contracts observed with more than one main-member edge",
		}),
	}
}

// ObserveResolve records one completed member-set resolution.
func (m *Metrics) ObserveResolve(d time.Duration, edges int) {
	m.ResolveDuration.Observe(d.Seconds())
	m.EdgesResolved.Add(float64(edges))
}
