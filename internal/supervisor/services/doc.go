// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

/*
Package services provides suture.Service wrappers for Rendezvous components.

Each wrapper translates a component's own lifecycle into suture's
Serve(ctx) error contract and implements fmt.Stringer for supervisor logs.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server
  - Listener failures are returned so the supervisor restarts the server
  - Drains in-flight requests within the shutdown timeout

WebSocket Hub (WebSocketHubService):
  - Runs websocket.Hub's fan-out loop
  - The hub closes every client on shutdown

Cache Maintenance (CacheMaintenanceService):
  - Consumes the change feed as a channel of eventprocessor.Signal
  - Invalidates the "events:" keys of the candidate cache
  - Sends recommendations_stale notices, rate limited with
    golang.org/x/time/rate; profile changes go only to their owner
  - Returns ErrChangeFeedClosed if the feed ends early so the
    supervisor resubscribes

NATS Server (NATSServerService):
  - Owns the shutdown of the embedded NATS server (-tags nats)

# Usage

	tree.AddDataService(services.NewCacheMaintenanceService(feed, resultCache, hub, cfg, logger))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(srv, addr, timeout, logger))
*/
package services
