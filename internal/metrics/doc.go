// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

/*
Package metrics provides Prometheus metrics collection and export for observability.

Metrics are registered on the default registry through promauto and exposed at
/metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

HTTP:
  - coffeechat_api_requests_total{method, endpoint, status_code}
  - coffeechat_api_request_duration_seconds{method, endpoint}
  - coffeechat_api_active_requests
  - coffeechat_api_rate_limit_hits_total{endpoint}

External services (Cognito, S3, DynamoDB, MongoDB, SQS):
  - coffeechat_external_call_duration_seconds{service, operation}
  - coffeechat_external_call_errors_total{service, operation}
  - coffeechat_dual_write_failures_total

Real-time channel:
  - coffeechat_ws_connections
  - coffeechat_ws_messages_sent_total / coffeechat_ws_messages_received_total
  - coffeechat_ws_errors_total{error_type}

Queue relay:
  - coffeechat_queue_messages_received_total
  - coffeechat_queue_messages_relayed_total
  - coffeechat_queue_messages_duplicate_total
  - coffeechat_queue_errors_total{operation}

Backplane:
  - coffeechat_backplane_messages_total{direction, result}
  - coffeechat_circuit_breaker_state{name} (0=closed, 1=half-open, 2=open)
  - coffeechat_circuit_breaker_requests_total{name, result}
  - coffeechat_circuit_breaker_state_transitions_total{name, from_state, to_state}

Authentication:
  - coffeechat_auth_events_total{event}

# Example Queries

	# p95 latency by endpoint
	histogram_quantile(0.95, rate(coffeechat_api_request_duration_seconds_bucket[5m]))

	# posts whose key-value write failed in the last hour
	increase(coffeechat_dual_write_failures_total[1h])
*/
package metrics
