// Package metrics provides Prometheus metric collection and exposition.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers request and token-lifecycle metrics.
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpLatency    prometheus.Histogram
	tokensCleaned  prometheus.Counter
	hashesCleared  prometheus.Counter
	cleanupFailure prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with the given
// registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proresume_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "proresume_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		tokensCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proresume_refresh_tokens_cleaned_total",
			Help: "Expired refresh tokens removed by the background sweep",
		}),
		hashesCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proresume_token_hashes_cleared_total",
			Help: "Elapsed verification and reset token hashes cleared",
		}),
		cleanupFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proresume_cleanup_failures_total",
			Help: "Background cleanup runs that returned an error",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.tokensCleaned,
		c.hashesCleared,
		c.cleanupFailure,
	)

	return c
}

// RecordHTTPRequest records one completed request.
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// RecordTokensCleaned records expired refresh tokens removed by a sweep.
func (c *Collector) RecordTokensCleaned(count int64) {
	c.tokensCleaned.Add(float64(count))
}

// RecordHashesCleared records elapsed token hashes cleared by a sweep.
func (c *Collector) RecordHashesCleared(count int64) {
	c.hashesCleared.Add(float64(count))
}

// RecordCleanupFailure records a failed cleanup run.
func (c *Collector) RecordCleanupFailure() {
	c.cleanupFailure.Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
