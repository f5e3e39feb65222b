// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/rendezvous/internal/geo"
	"github.com/tomtom215/rendezvous/internal/location"
	"github.com/tomtom215/rendezvous/internal/logging"
	"github.com/tomtom215/rendezvous/internal/models"
	"github.com/tomtom215/rendezvous/internal/recommend"
	"github.com/tomtom215/rendezvous/internal/validation"
)

// RecommendationQuery is the query string of GET /recommendations.
// Location parameters are read separately by the location resolver.
type RecommendationQuery struct {
	Search        string   `query:"q" validate:"max=200"`
	Categories    []string `query:"categories" validate:"max=20,dive,min=1,max=64"`
	TimeRange     string   `query:"time_range" validate:"omitempty,oneof=none now within_hour hour today"`
	MaxDistanceKm float64  `query:"max_distance_km" validate:"gte=0,lte=20000"`
	Audience      string   `query:"audience" validate:"omitempty,oneof=everyone women_only men_only"`
	Limit         int      `query:"limit" validate:"gte=0,lte=500"`
}

// BoundaryQuery is the query string of GET /recommendations/boundary.
type BoundaryQuery struct {
	Latitude  *float64 `query:"lat" validate:"required,latitude"`
	Longitude *float64 `query:"lon" validate:"required,longitude"`
	RadiusKm  float64  `query:"radius_km" validate:"gte=0"`
}

// BoundaryResponse is the search area overlay.
type BoundaryResponse struct {
	Center   geo.Coordinate `json:"center"`
	RadiusKm float64        `json:"radius_km"`
	Polygon  geo.Polygon    `json:"polygon"`
}

// parseError is a query parameter that could not be converted.
type parseError struct {
	param string
	value string
}

func (e *parseError) Error() string {
	return "invalid value for " + e.param + ": " + e.value
}

func parseRecommendationQuery(q url.Values) (*RecommendationQuery, error) {
	out := &RecommendationQuery{
		Search:     strings.TrimSpace(q.Get("q")),
		Categories: splitList(q["categories"]),
		TimeRange:  strings.ToLower(strings.TrimSpace(q.Get("time_range"))),
		Audience:   strings.ToLower(strings.TrimSpace(q.Get("audience"))),
	}
	var err error
	if out.MaxDistanceKm, err = parseFloat(q, "max_distance_km"); err != nil {
		return nil, err
	}
	if out.Limit, err = parseInt(q, "limit"); err != nil {
		return nil, err
	}
	return out, nil
}

// splitList accepts both repeated parameters and comma-separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseFloat(q url.Values, param string) (float64, error) {
	raw := strings.TrimSpace(q.Get(param))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &parseError{param: param, value: sanitizeLogValue(raw)}
	}
	return v, nil
}

func parseInt(q url.Values, param string) (int, error) {
	raw := strings.TrimSpace(q.Get(param))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &parseError{param: param, value: sanitizeLogValue(raw)}
	}
	return v, nil
}

func optionalFloat(q url.Values, param string) (*float64, error) {
	if strings.TrimSpace(q.Get(param)) == "" {
		return nil, nil
	}
	v, err := parseFloat(q, param)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Filters converts the query to engine filters.
func (q *RecommendationQuery) Filters() recommend.Filters {
	// Validated by oneof before conversion.
	tr, _ := recommend.ParseTimeRange(q.TimeRange)
	return recommend.Filters{
		SearchText:    q.Search,
		Categories:    q.Categories,
		TimeRange:     tr,
		MaxDistanceKm: q.MaxDistanceKm,
		Audience:      models.Audience(q.Audience),
	}
}

// Recommendations handles GET /api/v1/recommendations.
//
// Location comes from lat/lon. A missing, denied or malformed location never
// fails the request: the configured default is used, or distance is scored
// neutrally.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	query, err := parseRecommendationQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(query); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	res := h.resolver.Resolve(r.Context(), location.FromRequest(r))

	req := recommend.Request{
		RequestID: logging.RequestIDFromContext(r.Context()),
		UserID:    logging.UserIDFromContext(r.Context()),
		Filters:   query.Filters(),
		Location:  res.Coordinate,
		Limit:     query.Limit,
	}

	resp, err := h.engine.Recommend(r.Context(), req)
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Cached:      resp.Metadata.CacheHit,
		},
	})
}

// Boundary handles GET /api/v1/recommendations/boundary. It returns the
// polygon of the search area for a map overlay.
func (h *Handler) Boundary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	var query BoundaryQuery
	var err error
	if query.Latitude, err = optionalFloat(q, location.ParamLatitude); err == nil {
		if query.Longitude, err = optionalFloat(q, location.ParamLongitude); err == nil {
			query.RadiusKm, err = parseFloat(q, "radius_km")
		}
	}
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&query); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	center := geo.Coordinate{Lat: *query.Latitude, Lon: *query.Longitude}
	polygon, radius := h.engine.Boundary(center, query.RadiusKm)

	respondSuccess(w, http.StatusOK, BoundaryResponse{
		Center:   center,
		RadiusKm: radius,
		Polygon:  polygon,
	}, start)
}
