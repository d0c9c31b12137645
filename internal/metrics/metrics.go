// Package metrics defines the Prometheus instruments of the ledger.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "casaconti"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	StatementBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "statement_build_duration_seconds",
		Help:      "Time spent building a monthly statement.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
	})

	StatementExports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "statement_exports_total",
		Help:      "Statement exports by trigger and result.",
	}, []string{"trigger", "result"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_rate_limited_total",
		Help:      "Write requests rejected by the per client rate limiter.",
	})

	SuspiciousRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_suspicious_requests_total",
		Help:      "Requests matching a known probing pattern.",
	})

	ExportRequestsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "export_requests_published_total",
		Help:      "Export requests published to the broker by result.",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result maps an error to a "success"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
