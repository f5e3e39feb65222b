// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

/*
Package middleware provides HTTP middleware for the chi router.

Every component has the chi signature func(http.Handler) http.Handler:

  - RequestID: accepts or generates X-Request-ID and stores it in the
    request context for logging
  - AccessLog: one zerolog line per request
  - PrometheusMetrics: request counters and latency histograms labelled by
    chi route pattern, not raw path
  - PerformanceMonitor: in-memory latency percentiles per route, served by
    the stats endpoint

The router stacks them as:

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.PrometheusMetrics)
	r.Use(monitor.Middleware)

All wrappers preserve http.Hijacker and http.Flusher so websocket upgrades
pass through.
*/
package middleware
