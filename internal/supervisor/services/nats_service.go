// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
)

// NATSServer is the lifecycle surface of the embedded NATS server.
// eventprocessor.EmbeddedServer implements it.
type NATSServer interface {
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// NATSServerService keeps the embedded NATS server under supervision. The
// server is started by its constructor; the service owns its shutdown.
type NATSServerService struct {
	server          NATSServer
	shutdownTimeout time.Duration
	name            string
}

// NewNATSServerService wraps an already started server.
func NewNATSServerService(server NATSServer, shutdownTimeout time.Duration) *NATSServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &NATSServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-server",
	}
}

// Serve implements the suture.Service interface. A server that is not
// running cannot be restarted from here, so the supervisor is told not to
// retry.
func (s *NATSServerService) Serve(ctx context.Context) error {
	if !s.server.IsRunning() {
		return fmt.Errorf("nats server not running: %w", suture.ErrDoNotRestart)
	}

	<-ctx.Done()

	// Fresh context since the original is canceled
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("nats server shutdown failed: %w", err)
	}
	return ctx.Err()
}

// String returns the service name for logging.
func (s *NATSServerService) String() string {
	return s.name
}
