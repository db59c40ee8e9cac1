package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hqcatalog_web_requests_total",
		Help: "Total number of HTTP requests to the web front end",
	}, []string{"method", "route", "status"})

	HttpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hqcatalog_web_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hqcatalog_backend_requests_total",
		Help: "Calls made to the catalog backend by outcome",
	}, []string{"method", "endpoint", "outcome"})

	BackendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hqcatalog_backend_request_duration_seconds",
		Help:    "Duration of catalog backend calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	BackendInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hqcatalog_backend_in_flight",
		Help: "Catalog backend calls currently in flight",
	})

	OfflineMode = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hqcatalog_offline_mode",
		Help: "1 while serving the sample dataset because the backend is unreachable",
	})

	MockFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hqcatalog_mock_fallbacks_total",
		Help: "Reads answered from the sample dataset",
	}, []string{"endpoint"})

	LoanTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hqcatalog_loan_toggles_total",
		Help: "Loan state changes by direction and mode",
	}, []string{"direction", "mode"})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hqcatalog_exports_total",
		Help: "Catalog exports by format",
	}, []string{"format"})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hqcatalog_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)
