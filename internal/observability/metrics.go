// Package observability exposes Prometheus metrics for the offline
// cache layer and its collaborators.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registered collectors. A nil *Metrics is valid;
// all record methods are no-ops on nil so hot paths never branch on
// whether metrics are enabled.
type Metrics struct {
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	networkFetches   *prometheus.CounterVec
	offlineFallbacks prometheus.Counter
	precacheEntries  prometheus.Gauge
	outboxPending    prometheus.Gauge
}

// NewMetrics registers offline cache collectors with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pawkeep",
			Subsystem: "offline",
			Name:      "cache_hits_total",
			Help:      "Cache lookups that returned a stored response, by store and strategy.",
		}, []string{"store", "strategy"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pawkeep",
			Subsystem: "offline",
			Name:      "cache_misses_total",
			Help:      "Cache lookups that found no stored response, by strategy.",
		}, []string{"strategy"}),
		networkFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pawkeep",
			Subsystem: "offline",
			Name:      "network_fetches_total",
			Help:      "Network fetches issued by the router, by request class and outcome.",
		}, []string{"class", "outcome"}),
		offlineFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pawkeep",
			Subsystem: "offline",
			Name:      "offline_fallbacks_total",
			Help:      "Navigations served the cached offline page after a network failure.",
		}),
		precacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pawkeep",
			Subsystem: "offline",
			Name:      "precache_entries",
			Help:      "Entries committed to the precache store by the last install.",
		}),
		outboxPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pawkeep",
			Subsystem: "outbox",
			Name:      "pending_operations",
			Help:      "Queued offline mutations awaiting backend acknowledgment.",
		}),
	}
}

// RecordCacheHit increments the hit counter for a store and strategy.
func (m *Metrics) RecordCacheHit(store, strategy string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(store, strategy).Inc()
}

// RecordCacheMiss increments the miss counter for a strategy.
func (m *Metrics) RecordCacheMiss(strategy string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(strategy).Inc()
}

// RecordNetworkFetch increments the fetch counter for a class and outcome.
func (m *Metrics) RecordNetworkFetch(class, outcome string) {
	if m == nil {
		return
	}
	m.networkFetches.WithLabelValues(class, outcome).Inc()
}

// RecordOfflineFallback increments the offline page fallback counter.
func (m *Metrics) RecordOfflineFallback() {
	if m == nil {
		return
	}
	m.offlineFallbacks.Inc()
}

// SetPrecacheEntries records the precache store size after install.
func (m *Metrics) SetPrecacheEntries(n int) {
	if m == nil {
		return
	}
	m.precacheEntries.Set(float64(n))
}

// SetOutboxPending records the number of queued offline mutations.
func (m *Metrics) SetOutboxPending(n int64) {
	if m == nil {
		return
	}
	m.outboxPending.Set(float64(n))
}
