// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

/*
Package main is the entry point for the Rendezvous server.

Rendezvous answers "what is happening near me?" with a ranked list of
upcoming events. Candidates are loaded from DuckDB around the caller's
location, scored on distance, interest match, engagement and recency, and
widened through fallback levels until enough results are found.

# Application Architecture

Long-running components run under a Suture v4 supervisor tree:

	RootSupervisor ("rendezvous")
	├── DataSupervisor ("data-layer")
	│   └── Cache maintenance (change feed -> candidate cache, stale notices)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket hub
	│   └── Embedded NATS server (optional, -tags nats)
	└── APISupervisor ("api-layer")
	    └── HTTP server

Startup order:

 1. Configuration: Koanf v2 with defaults, optional config file and environment
 2. Logging: zerolog, bridged to slog for the supervisor
 3. Event store: DuckDB, optionally seeded with demo events
 4. Profile store: BadgerDB, on disk or in memory
 5. Recommendation engine with candidate cache and circuit-breaking repository
 6. Change notifications: Watermill over GoChannel, or NATS JetStream
 7. HTTP server: Chi router with auth, rate limiting and request metrics
 8. Supervisor tree

If any step fails, everything opened before it is closed again and the
process exits non-zero.

# Configuration

Priority: environment variables > config file > defaults.

	HTTP_HOST=0.0.0.0
	HTTP_PORT=8080
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	DUCKDB_PATH=/data/rendezvous.duckdb
	SEED_DEMO_DATA=false
	PROFILES_PATH=/data/profiles
	PROFILES_IN_MEMORY=false

	AUTH_MODE=none               # none or jwt
	JWT_SECRET=<32+ chars>       # required for jwt mode

	RECOMMEND_MIN_RESULTS=6
	CACHE_TTL=2m
	CACHE_STALE_BROADCAST_INTERVAL=1s

	NATS_ENABLED=false           # requires -tags nats
	NATS_EMBEDDED=true

# Build Tags

	go build ./cmd/server              # in-process change notifications
	go build -tags nats ./cmd/server   # NATS JetStream change notifications

Without the nats tag, NATS_ENABLED is ignored with a warning.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
server first, then the messaging and data layers, each within
HTTP_SHUTDOWN_TIMEOUT. Stores are closed afterwards in reverse order of
opening, and any service that failed to stop is reported.

# Usage

Local development with demo data:

	AUTH_MODE=none SEED_DEMO_DATA=true DUCKDB_PATH=:memory: \
	PROFILES_IN_MEMORY=true go run ./cmd/server

	curl 'localhost:8080/api/v1/recommendations?lat=51.5074&lon=-0.1278'
*/
package main
