// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/geo"
	"github.com/tomtom215/rendezvous/internal/location"
	"github.com/tomtom215/rendezvous/internal/models"
	"github.com/tomtom215/rendezvous/internal/recommend"
)

func TestRecommendations_PassesFiltersToEngine(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	q := url.Values{}
	q.Set("q", "  jazz ")
	q.Add("categories", "Music, board games")
	q.Add("categories", "food")
	q.Set("time_range", "Today")
	q.Set("max_distance_km", "12.5")
	q.Set("audience", "women_only")
	q.Set("limit", "5")
	q.Set("lat", "52.52")
	q.Set("lon", "13.405")
	q.Set("user_id", "alice")

	rec := env.do(t, http.MethodGet, "/api/v1/recommendations?"+q.Encode(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	req := env.engine.lastRequest(t)
	if req.UserID != "alice" {
		t.Errorf("UserID = %q, want alice", req.UserID)
	}
	if req.RequestID == "" {
		t.Error("RequestID should be set by the request id middleware")
	}
	if req.Limit != 5 {
		t.Errorf("Limit = %d, want 5", req.Limit)
	}
	if req.Location == nil || req.Location.Lat != 52.52 || req.Location.Lon != 13.405 {
		t.Errorf("Location = %v, want 52.52,13.405", req.Location)
	}

	f := req.Filters
	if f.SearchText != "jazz" {
		t.Errorf("SearchText = %q, want jazz", f.SearchText)
	}
	wantCats := []string{"music", "board games", "food"}
	if fmt.Sprint(f.Categories) != fmt.Sprint(wantCats) {
		t.Errorf("Categories = %v, want %v", f.Categories, wantCats)
	}
	if f.TimeRange != recommend.TimeRangeToday {
		t.Errorf("TimeRange = %v, want today", f.TimeRange)
	}
	if f.MaxDistanceKm != 12.5 {
		t.Errorf("MaxDistanceKm = %v, want 12.5", f.MaxDistanceKm)
	}
	if f.Audience != models.AudienceWomenOnly {
		t.Errorf("Audience = %q, want women_only", f.Audience)
	}
}

func TestRecommendations_ResponseEnvelope(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.engine.resp = &recommend.Response{
		Events: []recommend.RankedEvent{{
			CandidateEvent: models.CandidateEvent{ID: "ev-1", Title: "Jazz jam"},
		}},
		FallbackLevel:  recommend.LevelRelaxedDistance,
		Message:        recommend.LevelRelaxedDistance.Message(),
		TotalAvailable: 1,
		Metadata:       recommend.ResponseMetadata{CacheHit: true},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/recommendations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}

	envl := decodeEnvelope(t, rec)
	if !envl.Metadata.Cached {
		t.Error("metadata.cached should mirror the engine cache hit")
	}
	var body struct {
		Events []struct {
			ID string `json:"id"`
		} `json:"events"`
		FallbackLevel string `json:"fallback_level"`
		Message       string `json:"message"`
	}
	decodeData(t, rec, &body)
	if len(body.Events) != 1 || body.Events[0].ID != "ev-1" {
		t.Errorf("events = %+v, want [ev-1]", body.Events)
	}
	if body.FallbackLevel != "relaxed_distance" {
		t.Errorf("fallback_level = %q, want relaxed_distance", body.FallbackLevel)
	}
	if body.Message == "" {
		t.Error("relaxed results should carry a message")
	}
}

func TestRecommendations_LocationHandling(t *testing.T) {
	t.Parallel()

	fallback := geo.Coordinate{Lat: 51.5, Lon: -0.12}
	tests := []struct {
		name     string
		query    string
		resolver *location.Resolver
		want     *geo.Coordinate
	}{
		{"no location", "", nil, nil},
		{"malformed latitude", "lat=abc&lon=1", nil, nil},
		{"out of range", "lat=95&lon=1", nil, nil},
		{"denied ignores coordinates", "lat=1&lon=1&location_denied=true", nil, nil},
		{"default substituted", "location_denied=true",
			location.NewResolver(time.Second, &fallback, zerolog.Nop()), &fallback},
		{"reported location wins over default", "lat=1&lon=2",
			location.NewResolver(time.Second, &fallback, zerolog.Nop()), &geo.Coordinate{Lat: 1, Lon: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, withDeps(func(d *HandlerDeps) {
				if tt.resolver != nil {
					d.Resolver = tt.resolver
				}
			}))

			rec := env.do(t, http.MethodGet, "/api/v1/recommendations?"+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			got := env.engine.lastRequest(t).Location
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("Location = %v, want nil", got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("Location = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecommendations_InvalidQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"unknown time range", "time_range=tomorrow", ErrCodeValidation},
		{"unknown audience", "audience=teens", ErrCodeValidation},
		{"negative limit", "limit=-1", ErrCodeValidation},
		{"limit too large", "limit=501", ErrCodeValidation},
		{"negative distance", "max_distance_km=-3", ErrCodeValidation},
		{"non-numeric limit", "limit=ten", ErrCodeBadRequest},
		{"non-numeric distance", "max_distance_km=far", ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			rec := env.do(t, http.MethodGet, "/api/v1/recommendations?"+tt.query, "")
			envl := assertError(t, rec, http.StatusBadRequest, tt.wantCode)
			if envl.Error.Details["request_id"] == nil {
				t.Error("error details should carry the request id")
			}
			if env.engine.calls != 0 {
				t.Error("engine should not run for an invalid query")
			}
		})
	}
}

func TestRecommendations_RepositoryFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.engine.err = &recommend.RepositoryError{Op: "query_events", Err: context.DeadlineExceeded}

	rec := env.do(t, http.MethodGet, "/api/v1/recommendations", "")
	envl := assertError(t, rec, http.StatusServiceUnavailable, ErrCodeRepositoryUnavailable)
	if envl.Error.Details["operation"] != "query_events" {
		t.Errorf("details.operation = %v, want query_events", envl.Error.Details["operation"])
	}
	if envl.Error.Details["timeout"] != true {
		t.Errorf("details.timeout = %v, want true", envl.Error.Details["timeout"])
	}
}

func TestRecommendations_UnexpectedFailureHidesDetail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.engine.err = errBoom

	rec := env.do(t, http.MethodGet, "/api/v1/recommendations", "")
	envl := assertError(t, rec, http.StatusInternalServerError, ErrCodeInternal)
	if envl.Error.Message == errBoom.Error() {
		t.Error("internal error text must not reach the client")
	}
}

func TestBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantRadius float64
	}{
		{"default radius", "lat=52.5&lon=13.4", http.StatusOK, 25},
		{"explicit radius", "lat=52.5&lon=13.4&radius_km=10", http.StatusOK, 10},
		{"capped radius", "lat=52.5&lon=13.4&radius_km=5000", http.StatusOK, 100},
		{"missing longitude", "lat=52.5", http.StatusBadRequest, 0},
		{"latitude out of range", "lat=91&lon=0", http.StatusBadRequest, 0},
		{"malformed latitude", "lat=north&lon=0", http.StatusBadRequest, 0},
		{"negative radius", "lat=0&lon=0&radius_km=-1", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			rec := env.do(t, http.MethodGet, "/api/v1/recommendations/boundary?"+tt.query, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var body BoundaryResponse
			decodeData(t, rec, &body)
			if body.RadiusKm != tt.wantRadius {
				t.Errorf("radius_km = %v, want %v", body.RadiusKm, tt.wantRadius)
			}
			if len(body.Polygon) == 0 {
				t.Error("polygon should not be empty")
			}
		})
	}
}
