// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/rendezvous/internal/middleware"
	"github.com/tomtom215/rendezvous/internal/models"
	"github.com/tomtom215/rendezvous/internal/recommend"
)

// healthCheckTimeout bounds each dependency ping.
const healthCheckTimeout = 2 * time.Second

// ReadinessStatus is the body of /health/ready.
type ReadinessStatus struct {
	Status           string `json:"status"`
	EventStore       bool   `json:"event_store"`
	ProfileStore     bool   `json:"profile_store"`
	Breaker          string `json:"breaker,omitempty"`
	WebSocketClients int    `json:"websocket_clients"`
}

// StatsResponse is the body of /stats.
type StatsResponse struct {
	UptimeSeconds    float64                    `json:"uptime_seconds"`
	Engine           recommend.Stats            `json:"engine"`
	Events           *int                       `json:"events,omitempty"`
	Breaker          string                     `json:"breaker,omitempty"`
	WebSocketClients int                        `json:"websocket_clients"`
	Endpoints        []middleware.EndpointStats `json:"endpoints,omitempty"`
}

// HealthLive handles GET /api/v1/health/live. It reports only that the
// process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]any{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// HealthReady handles GET /api/v1/health/ready. It returns 503 while either
// store is unreachable or the repository breaker is open.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := ReadinessStatus{
		EventStore:   h.events != nil && h.events.Ping(ctx) == nil,
		ProfileStore: h.profiles != nil && h.profiles.Ping(ctx) == nil,
	}
	breakerOpen := false
	if h.breaker != nil {
		state := h.breaker.State()
		status.Breaker = state.String()
		breakerOpen = state == gobreaker.StateOpen
	}
	if h.hub != nil {
		status.WebSocketClients = h.hub.ClientCount()
	}

	code, result := http.StatusOK, "success"
	status.Status = "ready"
	if !status.EventStore || !status.ProfileStore || breakerOpen {
		code, result = http.StatusServiceUnavailable, "error"
		status.Status = "not_ready"
	}

	respondJSON(w, code, &models.APIResponse{
		Status:   result,
		Data:     status,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	out := StatsResponse{
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Engine:        h.engine.Stats(),
	}
	if h.events != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		n, err := h.events.CountEvents(ctx)
		cancel()
		if err == nil {
			out.Events = &n
		} else {
			h.logger.Debug().Err(err).Msg("event count unavailable for stats")
		}
	}
	if h.breaker != nil {
		out.Breaker = h.breaker.State().String()
	}
	if h.hub != nil {
		out.WebSocketClients = h.hub.ClientCount()
	}
	if h.perfMon != nil {
		out.Endpoints = h.perfMon.Stats()
	}

	respondSuccess(w, http.StatusOK, out, start)
}
