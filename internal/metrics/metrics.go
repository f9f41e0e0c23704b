package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestDuration times every call made to the task API
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskboard_api_request_duration_seconds",
			Help:    "Task API request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "route", "status"},
	)

	// MovesPersisted counts drops by outcome: ok, move_failed, fixup_failed
	MovesPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_moves_persisted_total",
			Help: "Board drops sent to the API, by outcome",
		},
		[]string{"outcome"},
	)

	// FixupFailures counts order fixup requests that failed
	FixupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskboard_fixup_failures_total",
			Help: "Order fixup requests that failed",
		},
	)

	// BoardReloads counts full task reloads by reason
	BoardReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_board_reloads_total",
			Help: "Full task list reloads, by reason",
		},
		[]string{"reason"},
	)
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
