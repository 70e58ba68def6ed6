package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "showcase"

// Result labels.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
)

// Upload outcome labels.
const (
	UploadTranscoded = "transcoded"
	UploadOriginal   = "original"
	UploadFailed     = "failed"
)

// PIN attempt outcome labels.
const (
	PINAccepted = "accepted"
	PINRejected = "rejected"
	PINLocked   = "locked"
)

var (
	repositoryOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "repository",
			Name:      "operations_total",
			Help:      "Solution repository operations by operation and result",
		},
		[]string{"op", "result"},
	)

	assetUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "asset",
			Name:      "uploads_total",
			Help:      "Asset uploads by outcome",
		},
		[]string{"outcome"},
	)

	assetRemovals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "asset",
			Name:      "removals_total",
			Help:      "Best-effort asset removals by result",
		},
		[]string{"result"},
	)

	pinAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "pin_attempts_total",
			Help:      "Admin PIN gate attempts by outcome",
		},
		[]string{"outcome"},
	)

	jobRuns = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_duration_seconds",
			Help:      "Background job run time by job and result",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		},
		[]string{"job", "result"},
	)

	fallbackReads = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "public",
			Name:      "fallback_reads_total",
			Help:      "Public solution reads served from the local fallback cache",
		},
	)
)

func ObserveRepository(op, result string) {
	repositoryOps.WithLabelValues(op, result).Inc()
}

func ObserveUpload(outcome string) {
	assetUploads.WithLabelValues(outcome).Inc()
}

func ObserveRemoval(result string) {
	assetRemovals.WithLabelValues(result).Inc()
}

func ObservePIN(outcome string) {
	pinAttempts.WithLabelValues(outcome).Inc()
}

func ObserveJob(job, result string, seconds float64) {
	jobRuns.WithLabelValues(job, result).Observe(seconds)
}

func ObserveFallbackRead() {
	fallbackReads.Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
