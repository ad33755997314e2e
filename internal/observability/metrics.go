// Package observability provides the metrics and tracing plumbing shared by
// the council, router, session, and discovery components. Constructors
// register collectors lazily — nothing is registered at package init, so
// these packages stay importable without a running Prometheus registry or
// OTLP collector.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for council deliberation, expert
// routing, session checkpoints, and node discovery.
type Metrics struct {
	// CouncilStageDuration measures each deliberation stage's latency.
	// Labels: stage (query|peer_review|synthesis)
	CouncilStageDuration *prometheus.HistogramVec

	// CouncilDeliberations counts completed deliberations by outcome.
	// Labels: outcome (success|error)
	CouncilDeliberations *prometheus.CounterVec

	// RouterDecisions counts expert-routing decisions.
	// Labels: expert
	RouterDecisions *prometheus.CounterVec

	// SessionCheckpoints counts session persistence writes.
	// Labels: result (success|error)
	SessionCheckpoints *prometheus.CounterVec

	// DiscoveryScanResults counts mDNS scan outcomes.
	// Labels: result (success|error)
	DiscoveryScanResults *prometheus.CounterVec

	// DiscoveryNodesActive is a gauge of currently known, non-stale nodes.
	DiscoveryNodesActive prometheus.Gauge
}

// NewMetrics registers and returns a new Metrics. The collectors are
// registered on the default Prometheus registry through promauto, so call
// it once per process: a second call panics on duplicate registration.
func NewMetrics() *Metrics {
	return &Metrics{
		CouncilStageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nexuscore_council_stage_duration_seconds",
				Help:    "Duration of each council deliberation stage in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		CouncilDeliberations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexuscore_council_deliberations_total",
				Help: "Total council deliberations by outcome",
			},
			[]string{"outcome"},
		),
		RouterDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexuscore_router_decisions_total",
				Help: "Total expert-routing decisions by expert",
			},
			[]string{"expert"},
		),
		SessionCheckpoints: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexuscore_session_checkpoints_total",
				Help: "Total session persistence writes by result",
			},
			[]string{"result"},
		),
		DiscoveryScanResults: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexuscore_discovery_scan_results_total",
				Help: "Total node-discovery scans by result",
			},
			[]string{"result"},
		),
		DiscoveryNodesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "nexuscore_discovery_nodes_active",
				Help: "Current count of non-stale discovered nodes",
			},
		),
	}
}
