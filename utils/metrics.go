package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of active HTTP requests",
		},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of user store operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"driver", "operation"},
	)

	// Authentication Metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status", "type"}, // success/failure, login/register
	)

	TokenUsage = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_usage_total",
			Help: "Access tokens issued and rejected",
		},
		[]string{"status"},
	)

	// Progress Metrics
	ActivityToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_toggles_total",
			Help: "Activity completion flips",
		},
		[]string{"direction", "difficulty"}, // complete/uncomplete
	)

	PointsAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "points_awarded_total",
			Help: "Sum of positive point deltas granted",
		},
	)

	NotesOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notes_operations_total",
			Help: "Total number of note operations",
		},
		[]string{"operation"}, // save, delete
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"},
	)
)

// TrackStoreOperation times a user store call; call ObserveDuration when done.
func TrackStoreOperation(driver, operation string) *prometheus.Timer {
	return prometheus.NewTimer(StoreOperationDuration.WithLabelValues(driver, operation))
}

func TrackAuthAttempt(status, authType string) {
	AuthAttempts.WithLabelValues(status, authType).Inc()
}

func TrackTokenUsage(status string) {
	TokenUsage.WithLabelValues(status).Inc()
}

func TrackActivityToggle(completed bool, difficulty string) {
	direction := "uncomplete"
	if completed {
		direction = "complete"
	}
	ActivityToggles.WithLabelValues(direction, difficulty).Inc()
}

func TrackPoints(delta int) {
	if delta > 0 {
		PointsAwarded.Add(float64(delta))
	}
}

func TrackNoteOperation(operation string) {
	NotesOperations.WithLabelValues(operation).Inc()
}

func TrackError(errorType string) {
	ErrorsTotal.WithLabelValues(errorType).Inc()
}
