// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

/*
Package supervisor provides process supervision for Rendezvous using suture v4.

# Overview

Long-running components are organized into three layers so that a failure
in one does not restart the others:

	RootSupervisor ("rendezvous")
	├── DataSupervisor ("data-layer")
	│   └── CacheMaintenanceService
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocketHubService
	│   └── NATSServerService (if NATS is enabled with an embedded server, build tag: nats)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A change feed that keeps failing is restarted with backoff inside the data
layer while the API keeps answering from the cache and the repository.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
	    return err
	}

	tree.AddDataService(services.NewCacheMaintenanceService(feed, candidates, hub, maintCfg, logger))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(srv, addr, timeout, logger))

	err = tree.Serve(ctx) // blocks until ctx is canceled
	tree.LogUnstopped()

# Configuration

TreeConfig mirrors suture.Spec. Zero values fall back to suture's defaults:
  - FailureThreshold: 5 failures
  - FailureDecay: 30 seconds
  - FailureBackoff: 15 seconds
  - ShutdownTimeout: 10 seconds

# Service Interface

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: service finished, will not be restarted
  - Return error: service crashed, will be restarted
  - Return an error wrapping suture.ErrDoNotRestart: not restarted
  - Context canceled: shutdown requested, return promptly

# What Is NOT Supervised

DuckDB and Badger are embedded stores opened once in main and closed after
the tree stops. The candidate cache's cleanup loop is owned by the cache.

# Logging

Supervisor events (start, failure, backoff, restart) are logged through
sutureslog into the slog logger, which logging.NewSlogLogger bridges to
zerolog.
*/
package supervisor
