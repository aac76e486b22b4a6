package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	BookingsTotal          *prometheus.CounterVec
	BestEffortFailures     *prometheus.CounterVec
	RecommendationsServed  prometheus.Histogram
	RecommendationDegraded prometheus.Counter
	EventsPublished        *prometheus.CounterVec

	CatalogCacheHits   prometheus.Counter
	CatalogCacheMisses prometheus.Counter
	CatalogBreakerOpen prometheus.Gauge
}

// NewCollector registers all metrics on reg under the given namespace
func NewCollector(namespace string, reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		gatherer: reg,

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		BookingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome (created, invalid, conflict, error).",
		}, []string{"outcome"}),

		BestEffortFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "best_effort_failures_total",
			Help:      "Post-booking writes that failed and were skipped. Non-zero means records need reconciling.",
		}, []string{"step"}),

		RecommendationsServed: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recommendation",
			Name:      "results",
			Help:      "Number of doctors returned per recommendation call.",
			Buckets:   []float64{0, 1, 3, 5, 10, 20},
		}),

		RecommendationDegraded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommendation",
			Name:      "degraded_total",
			Help:      "Recommendation calls answered with an empty list because the catalog failed.",
		}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events published by type and result.",
		}, []string{"type", "result"}),

		CatalogCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "cache_hits_total",
			Help:      "Doctor lookups served from the cache.",
		}),

		CatalogCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "cache_misses_total",
			Help:      "Doctor lookups that went to the store.",
		}),

		CatalogBreakerOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "breaker_open",
			Help:      "1 while the catalog circuit breaker is open.",
		}),
	}
}

func (c *Collector) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	code := strconv.Itoa(status)
	c.RequestsTotal.WithLabelValues(method, path, code).Inc()
	c.RequestDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveBooking(outcome string) {
	if c == nil {
		return
	}
	c.BookingsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveBestEffortFailure(step string) {
	if c == nil {
		return
	}
	c.BestEffortFailures.WithLabelValues(step).Inc()
}

func (c *Collector) ObserveRecommendation(results int, degraded bool) {
	if c == nil {
		return
	}
	if degraded {
		c.RecommendationDegraded.Inc()
	}
	c.RecommendationsServed.Observe(float64(results))
}

func (c *Collector) ObserveEvent(eventType string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.EventsPublished.WithLabelValues(eventType, result).Inc()
}

func (c *Collector) ObserveCatalogCache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CatalogCacheHits.Inc()
		return
	}
	c.CatalogCacheMisses.Inc()
}

func (c *Collector) SetCatalogBreakerOpen(open bool) {
	if c == nil {
		return
	}
	if open {
		c.CatalogBreakerOpen.Set(1)
		return
	}
	c.CatalogBreakerOpen.Set(0)
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
