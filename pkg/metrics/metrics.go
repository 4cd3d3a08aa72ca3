package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "padron_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// ResourceChecks counts resource-path authorization decisions (allowed|denied|unresolved).
	ResourceChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "padron_resource_checks_total",
			Help: "Total number of resource-path authorization checks",
		},
		[]string{"resource", "result"},
	)

	// DocumentUploads counts document uploads by type and result.
	DocumentUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "padron_document_uploads_total",
			Help: "Total number of socio document uploads",
		},
		[]string{"type", "result"},
	)

	// DeletionResolutions counts deletion-request resolutions by decision and outcome.
	DeletionResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "padron_deletion_resolutions_total",
			Help: "Total number of document deletion-request resolutions",
		},
		[]string{"decision", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "padron_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
