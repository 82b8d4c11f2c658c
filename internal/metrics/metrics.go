// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by method, route pattern and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_oil_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records request latency in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_oil_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthFailuresTotal counts rejected credentials by gate and error code.
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_oil_auth_failures_total",
			Help: "Authentication and two-factor rejections",
		},
		[]string{"gate", "code"},
	)

	// AggregationRunsTotal counts consumption-rate recalculations by outcome
	// (updated, skipped, failed).
	AggregationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_oil_aggregation_runs_total",
			Help: "Engine oil consumption rate recalculations",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthFailuresTotal,
		AggregationRunsTotal,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
