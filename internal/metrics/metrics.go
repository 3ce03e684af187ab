// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeechat_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coffeechat_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coffeechat_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeechat_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// External Service Metrics
	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coffeechat_external_call_duration_seconds",
			Help:    "Duration of calls to managed services in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	ExternalCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeechat_external_call_errors_total",
			Help: "Total number of failed calls to managed services",
		},
		[]string{"service", "operation"},
	)

	DualWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coffeechat_dual_write_failures_total",
			Help: "Posts stored in the document store whose key-value write failed",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coffeechat_ws_connections",
			Help: "Current number of WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coffeechat_ws_messages_sent_total",
			Help: "Total number of WebSocket frames queued to clients",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coffeechat_ws_messages_received_total",
			Help: "Total number of WebSocket frames received from clients",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeechat_ws_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"}, // "slow_client", "bad_frame", "write", "read"
	)

	// Queue Relay Metrics
	QueueMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coffeechat_queue_messages_received_total",
			Help: "Total number of post notifications received from the queue",
		},
	)

	QueueMessagesRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coffeechat_queue_messages_relayed_total",
			Help: "Total number of post notifications broadcast to clients",
		},
	)

	QueueMessagesDuplicate = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coffeechat_queue_messages_duplicate_total",
			Help: "Total number of redelivered post notifications dropped",
		},
	)

	QueueErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeechat_queue_errors_total",
			Help: "Total number of queue errors",
		},
		[]string{"operation"}, // "send", "receive", "delete", "parse"
	)

	// Backplane Metrics
	BackplaneMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeechat_backplane_messages_total",
			Help: "Total number of room messages through the backplane",
		},
		[]string{"direction", "result"}, // direction: "publish", "consume"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coffeechat_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeechat_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeechat_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Authentication Metrics
	AuthEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeechat_auth_events_total",
			Help: "Total number of authentication events",
		},
		[]string{"event"},
	)

	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffeechat_authz_decisions_total",
			Help: "Total number of ownership authorization decisions",
		},
		[]string{"resource", "action", "result"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coffeechat_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordExternalCall records one call to a managed service.
func RecordExternalCall(service, operation string, duration time.Duration, err error) {
	ExternalCallDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
	if err != nil {
		ExternalCallErrors.WithLabelValues(service, operation).Inc()
	}
}

// ObserveExternalCall starts a timer and returns a function that records the
// call when given its error:
//
//	done := metrics.ObserveExternalCall("s3", "PutObject")
//	_, err := client.PutObject(ctx, in)
//	done(err)
func ObserveExternalCall(service, operation string) func(error) {
	start := time.Now()
	return func(err error) {
		RecordExternalCall(service, operation, time.Since(start), err)
	}
}

// RecordBackplane records a backplane publish or consume.
func RecordBackplane(direction string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	BackplaneMessages.WithLabelValues(direction, result).Inc()
}
