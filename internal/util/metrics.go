package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_recorded_total",
		Help: "Total number of sales committed",
	})

	SalesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_failed_total",
		Help: "Total number of rejected or failed sales",
	}, []string{"reason"})

	SalesReversedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_reversed_total",
		Help: "Total number of sales undone",
	})

	SaleCommitLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sale_commit_latency_seconds",
		Help:    "Latency of the atomic sale transaction",
		Buckets: prometheus.DefBuckets,
	})

	StockDeductionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_deductions_total",
		Help: "Total number of successful FEFO deductions",
	})

	InsufficientStockTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insufficient_stock_total",
		Help: "Total number of deductions rejected for insufficient stock",
	})

	BatchesAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_batches_added_total",
		Help: "Total number of stock batches added",
	})

	MetricsResetRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metrics_reset_runs_total",
		Help: "Total number of daily metrics reset runs",
	})

	MetricsResetRetailers = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "metrics_reset_retailers",
		Help:    "Retailers processed per daily reset run",
		Buckets: []float64{1, 10, 50, 100, 500, 1000},
	})

	AuditEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_events_published_total",
		Help: "Total number of audit events published to the broker",
	}, []string{"type"})

	AuditEventsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_events_persisted_total",
		Help: "Total number of audit events persisted by the worker",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
