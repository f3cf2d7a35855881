// Package metrics exposes Prometheus counters for the HTTP layer and the cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CacheRecorder is what the cache layer reports to.
type CacheRecorder interface {
	RecordCacheHit(kind string)
	RecordCacheMiss(kind string)
	RecordCacheError(op string)
}

// HTTPRecorder is what the request logging middleware reports to.
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Collector implements both recorders on top of Prometheus.
type Collector struct {
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	cacheErrors   *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contacts_cache_hits_total",
			Help: "Cache lookups answered from the cache, by entity kind.",
		}, []string{"kind"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contacts_cache_misses_total",
			Help: "Cache lookups that fell through to the store, by entity kind.",
		}, []string{"kind"}),
		cacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contacts_cache_errors_total",
			Help: "Cache backend failures swallowed by the fail-open layer, by operation.",
		}, []string{"op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contacts_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contacts_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.cacheHits,
		c.cacheMisses,
		c.cacheErrors,
		c.httpRequests,
		c.httpDurations,
	)

	return c
}

func (c *Collector) RecordCacheHit(kind string) {
	c.cacheHits.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordCacheMiss(kind string) {
	c.cacheMisses.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordCacheError(op string) {
	c.cacheErrors.WithLabelValues(op).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDurations.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordCacheHit(string)                                {}
func (Nop) RecordCacheMiss(string)                               {}
func (Nop) RecordCacheError(string)                              {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
