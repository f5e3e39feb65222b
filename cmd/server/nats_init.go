// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

//go:build nats

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/config"
	"github.com/tomtom215/rendezvous/internal/eventprocessor"
	"github.com/tomtom215/rendezvous/internal/supervisor"
	"github.com/tomtom215/rendezvous/internal/supervisor/services"
)

// NATSComponents holds the JetStream transport of change notifications and,
// when configured, the embedded server it connects to.
type NATSComponents struct {
	PubSub *eventprocessor.PubSub
	Server *eventprocessor.EmbeddedServer
	URL    string
}

// InitNATS starts the embedded server if configured and connects the
// watermill JetStream pub/sub. It returns nil when NATS is disabled.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func InitNATS(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*NATSComponents, error) {
	if !cfg.NATS.Enabled {
		logger.Info().Msg("NATS disabled, change notifications stay in process")
		return nil, nil
	}

	c := &NATSComponents{URL: cfg.NATS.URL}

	if cfg.NATS.EmbeddedServer {
		serverCfg := eventprocessor.ServerConfigFrom(&cfg.NATS)
		srv, err := eventprocessor.NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		c.Server = srv
		c.URL = srv.ClientURL()
		logger.Info().
			Str("url", c.URL).
			Bool("jetstream", srv.JetStreamEnabled()).
			Str("store_dir", serverCfg.StoreDir).
			Msg("Embedded NATS server started")
	}

	ps, err := eventprocessor.NewNATSPubSub(ctx, &cfg.NATS, c.URL, logger)
	if err != nil {
		c.Shutdown()
		return nil, fmt.Errorf("connect NATS pub/sub: %w", err)
	}
	c.PubSub = ps

	logger.Info().
		Str("url", c.URL).
		Str("stream", cfg.NATS.StreamName).
		Str("durable", cfg.NATS.DurableName).
		Msg("Change notifications use NATS JetStream")
	return c, nil
}

// Shutdown stops the embedded server if there is one. It is safe to call
// after the supervisor already stopped it.
func (c *NATSComponents) Shutdown() {
	if c == nil || c.Server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = c.Server.Shutdown(ctx)
}

// AddNATSToSupervisor puts the embedded server under the messaging layer.
// A remote NATS deployment has nothing to supervise.
func AddNATSToSupervisor(tree *supervisor.SupervisorTree, c *NATSComponents, shutdownTimeout time.Duration) {
	if c == nil || c.Server == nil {
		return
	}
	tree.AddMessagingService(services.NewNATSServerService(c.Server, shutdownTimeout))
}
