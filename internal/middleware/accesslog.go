// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/logging"
)

// slowRequestThreshold promotes access log lines to warn.
const slowRequestThreshold = time.Second

// AccessLog writes one structured line per request. Server errors log at
// error, slow requests at warn, everything else at debug.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func AccessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "http").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrapWriter(w)
			next.ServeHTTP(sw, r)
			elapsed := time.Since(start)

			var ev *zerolog.Event
			switch {
			case sw.status >= http.StatusInternalServerError:
				ev = logger.Error()
			case elapsed > slowRequestThreshold:
				ev = logger.Warn()
			default:
				ev = logger.Debug()
			}
			ev.Str("method", r.Method).
				Str("route", routeLabel(r)).
				Str("path", r.URL.Path).
				Int("status", sw.status).
				Int("bytes", sw.bytes).
				Dur("duration", elapsed).
				Str("request_id", logging.RequestIDFromContext(r.Context())).
				Msg("HTTP request")
		})
	}
}
