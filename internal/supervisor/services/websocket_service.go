// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package services

import (
	"context"
	"errors"
	"fmt"
)

// ContextHub is a hub whose fan-out loop runs until ctx is done.
// websocket.Hub implements it.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
	ClientCount() int
}

// WebSocketHubService runs the stale-notice hub under supervision.
type WebSocketHubService struct {
	hub  ContextHub
	name string
}

// NewWebSocketHubService wraps hub.
func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{
		hub:  hub,
		name: "websocket-hub",
	}
}

// Serve implements the suture.Service interface.
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	err := w.hub.RunWithContext(ctx)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("websocket hub (%d clients): %w", w.hub.ClientCount(), err)
}

// String returns the service name for logging.
func (w *WebSocketHubService) String() string {
	return w.name
}
