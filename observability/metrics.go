package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type chainMetrics struct {
	transactions *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	events       *prometheus.CounterVec
	height       prometheus.Gauge
	supply       prometheus.Gauge
	reserve      prometheus.Gauge
	custody      prometheus.Gauge
}

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
	streams   prometheus.Gauge
}

type indexerMetrics struct {
	indexed   prometheus.Counter
	duplicate prometheus.Counter
	cursor    prometheus.Gauge
	errors    *prometheus.CounterVec
}

type volunteeringMetrics struct {
	requests    *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

var (
	chainMetricsOnce sync.Once
	chainRegistry    *chainMetrics

	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	indexerMetricsOnce sync.Once
	indexerRegistry    *indexerMetrics

	volunteeringMetricsOnce sync.Once
	volunteeringRegistry    *volunteeringMetrics
)

// Chain returns the lazily registered transaction and ledger metrics.
func Chain() *chainMetrics {
	chainMetricsOnce.Do(func() {
		chainRegistry = &chainMetrics{
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "eusko",
				Subsystem: "chain",
				Name:      "transactions_total",
				Help:      "Applied transactions segmented by target contract, outcome and failure kind.",
			}, []string{"contract", "outcome", "kind"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "eusko",
				Subsystem: "chain",
				Name:      "apply_duration_seconds",
				Help:      "Time spent applying a transaction, commit included.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"contract"}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "eusko",
				Subsystem: "chain",
				Name:      "events_total",
				Help:      "Committed events segmented by type.",
			}, []string{"type"}),
			height: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "eusko",
				Subsystem: "chain",
				Name:      "height",
				Help:      "Height of the last committed transaction.",
			}),
			supply: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "eusko",
				Subsystem: "ledger",
				Name:      "total_supply",
				Help:      "Ledger token supply in base units.",
			}),
			reserve: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "eusko",
				Subsystem: "ledger",
				Name:      "total_reserve",
				Help:      "Reference units accounted as reserve backing.",
			}),
			custody: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "eusko",
				Subsystem: "ledger",
				Name:      "custody_balance",
				Help:      "Reference units actually held by the ledger.",
			}),
		}
		prometheus.MustRegister(
			chainRegistry.transactions,
			chainRegistry.latency,
			chainRegistry.events,
			chainRegistry.height,
			chainRegistry.supply,
			chainRegistry.reserve,
			chainRegistry.custody,
		)
	})
	return chainRegistry
}

// RecordTransaction counts one applied transaction. kind is empty on success.
func (m *chainMetrics) RecordTransaction(contract, kind string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	contract = labelOr(contract, "unknown")
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.transactions.WithLabelValues(contract, outcome, kind).Inc()
	m.latency.WithLabelValues(contract).Observe(duration.Seconds())
}

func (m *chainMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(labelOr(eventType, "unknown")).Inc()
}

func (m *chainMetrics) SetHeight(height uint64) {
	if m == nil {
		return
	}
	m.height.Set(float64(height))
}

// SetBacking publishes the ledger backing figures. Values beyond float64
// precision are approximated.
func (m *chainMetrics) SetBacking(supply, reserve, custody float64) {
	if m == nil {
		return
	}
	m.supply.Set(supply)
	m.reserve.Set(reserve)
	m.custody.Set(custody)
}

// ModuleMetrics returns the JSON-RPC request metrics.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "eusko",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "eusko",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "eusko",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Requests rejected by throttling policies.",
			}, []string{"reason"}),
			streams: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "eusko",
				Subsystem: "rpc",
				Name:      "event_streams",
				Help:      "Open websocket event streams.",
			}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.latency,
			moduleRegistry.throttles,
			moduleRegistry.streams,
		)
	})
	return moduleRegistry
}

// Observe records one handled JSON-RPC request.
func (m *moduleMetrics) Observe(method string, failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	method = labelOr(method, "unknown")
	outcome := "success"
	if failed {
		outcome = "error"
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordThrottle counts a rejected request. Reasons should be stable strings
// such as "rate_limit" or "body_too_large".
func (m *moduleMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	m.throttles.WithLabelValues(labelOr(reason, "unspecified")).Inc()
}

func (m *moduleMetrics) StreamOpened() {
	if m != nil {
		m.streams.Inc()
	}
}

func (m *moduleMetrics) StreamClosed() {
	if m != nil {
		m.streams.Dec()
	}
}

// Indexer returns the off-chain indexer metrics.
func Indexer() *indexerMetrics {
	indexerMetricsOnce.Do(func() {
		indexerRegistry = &indexerMetrics{
			indexed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "eusko",
				Subsystem: "indexer",
				Name:      "events_indexed_total",
				Help:      "Events written to the index.",
			}),
			duplicate: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "eusko",
				Subsystem: "indexer",
				Name:      "events_duplicate_total",
				Help:      "Events skipped because their id was already indexed.",
			}),
			cursor: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "eusko",
				Subsystem: "indexer",
				Name:      "cursor",
				Help:      "Next event sequence the indexer will request.",
			}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "eusko",
				Subsystem: "indexer",
				Name:      "errors_total",
				Help:      "Indexer failures segmented by stage.",
			}, []string{"stage"}),
		}
		prometheus.MustRegister(
			indexerRegistry.indexed,
			indexerRegistry.duplicate,
			indexerRegistry.cursor,
			indexerRegistry.errors,
		)
	})
	return indexerRegistry
}

func (m *indexerMetrics) RecordBatch(indexed, duplicate int, cursor uint64) {
	if m == nil {
		return
	}
	m.indexed.Add(float64(indexed))
	m.duplicate.Add(float64(duplicate))
	m.cursor.Set(float64(cursor))
}

func (m *indexerMetrics) RecordError(stage string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(labelOr(stage, "unknown")).Inc()
}

// Volunteering returns the opportunity store metrics.
func Volunteering() *volunteeringMetrics {
	volunteeringMetricsOnce.Do(func() {
		volunteeringRegistry = &volunteeringMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "eusko",
				Subsystem: "volunteering",
				Name:      "requests_total",
				Help:      "Opportunity API requests segmented by route and status code class.",
			}, []string{"route", "status"}),
			transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "eusko",
				Subsystem: "volunteering",
				Name:      "status_transitions_total",
				Help:      "Opportunity status changes segmented by target status.",
			}, []string{"status"}),
		}
		prometheus.MustRegister(volunteeringRegistry.requests, volunteeringRegistry.transitions)
	})
	return volunteeringRegistry
}

func (m *volunteeringMetrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	class := "2xx"
	switch {
	case status >= 500:
		class = "5xx"
	case status >= 400:
		class = "4xx"
	}
	m.requests.WithLabelValues(labelOr(route, "unknown"), class).Inc()
}

func (m *volunteeringMetrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(labelOr(strings.ToLower(status), "unknown")).Inc()
}

func labelOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
