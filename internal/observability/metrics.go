package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "marinesight"

// Metrics holds the Prometheus collectors for the client session and the
// reference sightings server.
type Metrics struct {
	// Client session.
	StoreSize            prometheus.Gauge
	ReportOutcomes       *prometheus.CounterVec   // labels: outcome={succeeded,sync_failed,location_unavailable,permission_denied,invalid_species}
	LocationTransitions  *prometheus.CounterVec   // labels: state={authorized,available,denied,restricted}
	GatewayRequests      *prometheus.CounterVec   // labels: op={create,fetch}, outcome={success,unreachable,malformed}
	GatewayDuration      *prometheus.HistogramVec // labels: op={create,fetch}
	BootstrapFetchFailed prometheus.Counter

	// Sightings server.
	SightingsCreated   prometheus.Counter
	SightingsDeduped   prometheus.Counter
	SightingsPublished *prometheus.CounterVec // labels: outcome={success,error}

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		StoreSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_sightings",
			Help:      "Number of sightings currently held in the session store.",
		}),
		ReportOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_outcomes_total",
			Help:      "Report submissions by outcome.",
		}, []string{"outcome"}),
		LocationTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_transitions_total",
			Help:      "Location provider state transitions by target state.",
		}, []string{"state"}),
		GatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Remote store requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		GatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Remote store request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		BootstrapFetchFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_fetch_failures_total",
			Help:      "Startup fetches that gave up after all attempts.",
		}),
		SightingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "server_sightings_created_total",
			Help:      "Sightings accepted by the sightings server.",
		}),
		SightingsDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "server_sightings_deduplicated_total",
			Help:      "Create requests answered from the idempotency index.",
		}),
		SightingsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "server_sightings_published_total",
			Help:      "Created sightings published to Kafka by outcome.",
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when place-name enrichment is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.StoreSize,
		m.ReportOutcomes,
		m.LocationTransitions,
		m.GatewayRequests,
		m.GatewayDuration,
		m.BootstrapFetchFailed,
		m.SightingsCreated,
		m.SightingsDeduped,
		m.SightingsPublished,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeEnabled,
	}
}
