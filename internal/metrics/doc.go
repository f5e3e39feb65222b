// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

/*
Package metrics registers the Prometheus collectors exposed at /metrics.

Collectors are package-level promauto globals. Callers use the Record*
helpers instead of touching label values directly.

# Available Metrics

Recommendation engine:
  - recommend_requests_total{result}
  - recommend_duration_seconds
  - recommend_fallback_level_total{level}
  - recommend_candidates_excluded_total{reason}
  - recommend_results

Storage and cache:
  - duckdb_query_duration_seconds{operation,table}
  - duckdb_query_errors_total{operation,table,error_type}
  - profile_store_operations_total{operation,result}
  - cache_hits_total, cache_misses_total, cache_entries,
    cache_evictions_total, cache_invalidated_entries_total

Transport:
  - api_requests_total, api_request_duration_seconds, api_active_requests
  - event_changes_published_total, event_changes_consumed_total,
    event_changes_coalesced_total
  - websocket_connections, websocket_messages_sent_total, websocket_errors_total
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total
*/
package metrics
