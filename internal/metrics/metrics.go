// Package metrics provides Prometheus metrics for game processing and the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "courtside"

// Result labels for games_processed_total
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics owns a dedicated registry so tests can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	gamesProcessed    *prometheus.CounterVec
	possessions       prometheus.Counter
	lineupViolations  *prometheus.CounterVec
	possessionAudit   *prometheus.CounterVec
	fetchDuration     prometheus.Histogram
	processDuration   prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	websocketClients  prometheus.Gauge
	eventsBroadcasted prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)

	return &Metrics{
		registry: reg,
		gamesProcessed: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_processed_total",
			Help:      "Games run through the possession and lineup engines",
		}, []string{"result"}),
		possessions: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "possessions_total",
			Help:      "Possessions derived across all processed games",
		}),
		lineupViolations: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lineup_violations_total",
			Help:      "Lineup data-quality violations by kind",
		}, []string{"kind"}),
		possessionAudit: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "possession_anomalies_total",
			Help:      "Heuristic fallbacks taken by the possession tracker",
		}, []string{"kind"}),
		fetchDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent downloading one game's play-by-play",
			Buckets:   prometheus.DefBuckets,
		}),
		processDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_duration_seconds",
			Help:      "End-to-end time to process one game",
			Buckets:   prometheus.DefBuckets,
		}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code",
		}, []string{"route", "method", "status_code"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		websocketClients: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients",
		}),
		eventsBroadcasted: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_broadcasted_total",
			Help:      "Messages fanned out to websocket clients",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GameProcessed records one processing attempt.
func (m *Metrics) GameProcessed(result string, possessions int, took time.Duration) {
	m.gamesProcessed.WithLabelValues(result).Inc()
	m.possessions.Add(float64(possessions))
	m.processDuration.Observe(took.Seconds())
}

// FetchObserved records a download.
func (m *Metrics) FetchObserved(took time.Duration) {
	m.fetchDuration.Observe(took.Seconds())
}

// LineupViolation counts one violation of the given kind.
func (m *Metrics) LineupViolation(kind string) {
	m.lineupViolations.WithLabelValues(kind).Inc()
}

// PossessionAnomalies adds n to the counter for kind; n <= 0 is ignored.
func (m *Metrics) PossessionAnomalies(kind string, n int) {
	if n <= 0 {
		return
	}
	m.possessionAudit.WithLabelValues(kind).Add(float64(n))
}

// HTTPRequest records a served request.
func (m *Metrics) HTTPRequest(route, method string, status int, took time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(took.Seconds())
}

// SetWebsocketClients reports the current hub size.
func (m *Metrics) SetWebsocketClients(n int) {
	m.websocketClients.Set(float64(n))
}

// Broadcasted counts one message sent to the hub.
func (m *Metrics) Broadcasted() {
	m.eventsBroadcasted.Inc()
}
