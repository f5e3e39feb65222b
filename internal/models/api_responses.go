// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package models

import (
	"time"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
// Status is "success" (see Data) or "error" (see Error).
//
// Example success response:
//
//	{
//	  "status": "success",
//	  "data": {"events": [...], "fallback_level": "exact", "total_available": 14},
//	  "metadata": {"timestamp": "2026-10-17T18:04:05Z", "query_time_ms": 12}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "metadata": {"timestamp": "2026-10-17T18:04:05Z"},
//	  "error": {"code": "REPOSITORY_UNAVAILABLE", "message": "Event store unavailable"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries timing and cache information for a response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is the machine-readable error body.
//
// Codes used by the API:
//   - VALIDATION_ERROR: invalid query or body
//   - NOT_FOUND: unknown event or profile
//   - UNAUTHORIZED: missing or invalid bearer token
//   - FORBIDDEN: token subject does not own the resource
//   - REPOSITORY_UNAVAILABLE: the event store failed or the breaker is open
//   - INTERNAL_ERROR: anything else
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
