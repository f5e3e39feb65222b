// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

// Package database is the DuckDB-backed event store.
//
// # Files
//
//   - database.go: connection lifecycle, pool tuning, checkpoint on close
//   - database_schema.go: table creation
//   - events.go: QueryEvents, GetEvent, UpsertEvent, DeleteEvent
//   - breaker.go: BreakerRepository, a gobreaker wrapper that fails fast
//     while the store is unhealthy
//   - seed.go: demo events for local development
//
// # Semantics
//
// QueryEvents returns events that are not soft-deleted and have not yet
// started, restricted to the given statuses and audiences, ordered by start
// time ascending and then id. Deletes are soft so that late change
// notifications never resurrect a removed event.
//
// Every query runs under a context deadline (database.query_timeout) and
// records prometheus metrics via internal/metrics.
package database
