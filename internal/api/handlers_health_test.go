// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package api

import (
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/rendezvous/internal/models"
)

func TestHealthLive(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health/live", "")
	var body struct {
		Alive bool `json:"alive"`
	}
	decodeData(t, rec, &body)
	if !body.Alive {
		t.Error("alive = false, want true")
	}
}

func TestHealthReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       []envOption
		wantStatus int
		wantState  string
	}{
		{"all healthy", nil, http.StatusOK, "ready"},
		{"closed breaker", []envOption{withDeps(func(d *HandlerDeps) {
			d.Breaker = fakeBreaker{state: gobreaker.StateClosed}
		})}, http.StatusOK, "ready"},
		{"open breaker", []envOption{withDeps(func(d *HandlerDeps) {
			d.Breaker = fakeBreaker{state: gobreaker.StateOpen}
		})}, http.StatusServiceUnavailable, "not_ready"},
		{"event store down", []envOption{withDeps(func(d *HandlerDeps) {
			events := newFakeEvents()
			events.pingErr = errBoom
			d.Events = events
		})}, http.StatusServiceUnavailable, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, tt.opts...)
			rec := env.do(t, http.MethodGet, "/api/v1/health/ready", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var body ReadinessStatus
			envl := decodeEnvelope(t, rec)
			if err := json.Unmarshal(envl.Data, &body); err != nil {
				t.Fatal(err)
			}
			if body.Status != tt.wantState {
				t.Errorf("status = %q, want %q", body.Status, tt.wantState)
			}
		})
	}
}

func TestStats(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, withDeps(func(d *HandlerDeps) {
		d.Breaker = fakeBreaker{state: gobreaker.StateHalfOpen}
	}))
	env.events.events["ev-1"] = models.CandidateEvent{ID: "ev-1"}

	// One recommendation so the engine and endpoint counters move.
	env.do(t, http.MethodGet, "/api/v1/recommendations", "")

	rec := env.do(t, http.MethodGet, "/api/v1/stats", "")
	var body StatsResponse
	decodeData(t, rec, &body)

	if body.Engine.Requests != 1 {
		t.Errorf("engine.requests = %d, want 1", body.Engine.Requests)
	}
	if body.Events == nil || *body.Events != 1 {
		t.Errorf("events = %v, want 1", body.Events)
	}
	if body.Breaker != "half-open" {
		t.Errorf("breaker = %q, want half-open", body.Breaker)
	}
	if len(body.Endpoints) == 0 {
		t.Error("endpoint statistics should include the recommendation request")
	}
}
