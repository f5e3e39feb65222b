// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

//go:build !nats

package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/config"
	"github.com/tomtom215/rendezvous/internal/eventprocessor"
	"github.com/tomtom215/rendezvous/internal/supervisor"
)

// NATSComponents is a stub for non-NATS builds.
type NATSComponents struct {
	PubSub *eventprocessor.PubSub
}

// InitNATS is a no-op for non-NATS builds. Notifications stay in process.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func InitNATS(_ context.Context, cfg *config.Config, logger zerolog.Logger) (*NATSComponents, error) {
	if cfg.NATS.Enabled {
		logger.Warn().Msg("NATS_ENABLED=true but NATS support not compiled (build with -tags nats)")
	}
	return nil, nil
}

// Shutdown is a no-op for non-NATS builds.
func (c *NATSComponents) Shutdown() {}

// AddNATSToSupervisor is a no-op for non-NATS builds.
func AddNATSToSupervisor(_ *supervisor.SupervisorTree, _ *NATSComponents, _ time.Duration) {}
