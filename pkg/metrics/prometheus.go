// Package metrics provides Prometheus metrics for flowlens runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds all Prometheus metrics for a run.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	// Engine metrics
	itemsProcessed   prometheus.Counter
	itemsSkipped     prometheus.Counter
	eventsNormalized prometheus.Counter
	projectsOK       prometheus.Counter
	projectsFailed   prometheus.Counter
	unknownStages    prometheus.Counter

	// Fetch metrics
	fetchRequests prometheus.Counter
	fetchRetries  prometheus.Counter
	fetchLatency  prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "flowlens",
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.itemsProcessed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "items_processed_total",
		Help:      "Items whose history was reconstructed and sampled.",
	})
	m.itemsSkipped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "items_skipped_total",
		Help:      "Items dropped because of malformed events.",
	})
	m.eventsNormalized = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_normalized_total",
		Help:      "Move events accepted after sorting and no-op collapsing.",
	})
	m.projectsOK = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "projects_processed_total",
		Help:      "Projects whose weekly series was produced.",
	})
	m.projectsFailed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "projects_failed_total",
		Help:      "Projects aborted by a project-level error.",
	})
	m.unknownStages = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "unknown_stages_total",
		Help:      "Configured stages never observed in any event.",
	})
	m.fetchRequests = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "fetch_requests_total",
		Help:      "API requests issued by the fetcher.",
	})
	m.fetchRetries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "fetch_retries_total",
		Help:      "API requests retried after 429 or 5xx responses.",
	})
	m.fetchLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "fetch_latency_seconds",
		Help:      "API request latency.",
		Buckets:   prometheus.DefBuckets,
	})
}

// Package-level recording helpers backed by the global manager.

func RecordItemProcessed() { globalManager.itemsProcessed.Inc() }
func RecordItemSkipped()   { globalManager.itemsSkipped.Inc() }

func RecordEventsNormalized(n int) { globalManager.eventsNormalized.Add(float64(n)) }

func RecordProjectProcessed() { globalManager.projectsOK.Inc() }
func RecordProjectFailed()    { globalManager.projectsFailed.Inc() }
func RecordUnknownStage()     { globalManager.unknownStages.Inc() }

func RecordFetchRequest() { globalManager.fetchRequests.Inc() }
func RecordFetchRetry()   { globalManager.fetchRetries.Inc() }

func RecordFetchLatency(seconds float64) { globalManager.fetchLatency.Observe(seconds) }

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler returns an HTTP handler exposing the global registry, for the
// optional /metrics listener during long fetch runs.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
