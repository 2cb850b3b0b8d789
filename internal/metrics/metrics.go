// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quotekit_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	QuotesComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotekit_quotes_total",
			Help: "Total number of quote requests by outcome",
		},
		[]string{"service_type", "outcome"},
	)

	CeilingsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quotekit_ceilings_issued_total",
			Help: "Total number of guaranteed ceilings issued",
		},
	)

	FoundingApplications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotekit_founding_applications_total",
			Help: "Total number of founding discount applications by status",
		},
		[]string{"status"},
	)
)
