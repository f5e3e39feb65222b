// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package recommend

import (
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/rendezvous/internal/config"
)

// Weights are the relative contributions of each score component.
// They are normalized at scoring time and need not sum to 1.
type Weights struct {
	Distance   float64 `json:"distance"`
	Interest   float64 `json:"interest"`
	Engagement float64 `json:"engagement"`
	Recency    float64 `json:"recency"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Distance + w.Interest + w.Engagement + w.Recency
}

// Config tunes the engine.
type Config struct {
	// MinResults is the count at which the cascade stops relaxing.
	MinResults int `json:"min_results"`

	// DefaultRadiusKm normalizes the distance score when the user set no
	// radius. MaxRadiusKm caps radius doubling and is used at level Any.
	DefaultRadiusKm float64 `json:"default_radius_km"`
	MaxRadiusKm     float64 `json:"max_radius_km"`

	// CandidateLimit is passed to the repository; ResultLimit caps responses.
	CandidateLimit int `json:"candidate_limit"`
	ResultLimit    int `json:"result_limit"`

	Weights Weights `json:"weights"`

	// NeutralDistance is the distance score when location is unknown.
	NeutralDistance float64 `json:"neutral_distance"`
	// AdjacentCredit is the interest score for an adjacent category.
	AdjacentCredit float64 `json:"adjacent_credit"`
	// EngagementCap is the participation count at which engagement saturates.
	EngagementCap int `json:"engagement_cap"`

	// Recency is 1 up to RecencyKnee, then decays as 1/(1+(h-knee)/decay).
	RecencyKnee        time.Duration `json:"recency_knee"`
	RecencyDecay       time.Duration `json:"recency_decay"`
	PreferredHourBonus float64       `json:"preferred_hour_bonus"`

	// NowWindow is the lookahead of TimeRangeNow.
	NowWindow time.Duration `json:"now_window"`

	// Location is the timezone for "today" and preferred hours.
	Location *time.Location `json:"-"`

	// CacheTTL is how long repository results stay cached.
	CacheTTL time.Duration `json:"cache_ttl"`
	// QueryTimeout bounds each repository call.
	QueryTimeout time.Duration `json:"query_timeout"`
}

// DefaultConfig returns the built-in tuning.
func DefaultConfig() *Config {
	return &Config{
		MinResults:      6,
		DefaultRadiusKm: 25,
		MaxRadiusKm:     100,
		CandidateLimit:  500,
		ResultLimit:     50,
		Weights: Weights{
			Distance:   0.35,
			Interest:   0.30,
			Engagement: 0.15,
			Recency:    0.20,
		},
		NeutralDistance:    0.5,
		AdjacentCredit:     0.5,
		EngagementCap:      10,
		RecencyKnee:        3 * time.Hour,
		RecencyDecay:       48 * time.Hour,
		PreferredHourBonus: 0.3,
		NowWindow:          30 * time.Minute,
		Location:           time.UTC,
		CacheTTL:           2 * time.Minute,
		QueryTimeout:       5 * time.Second,
	}
}

// FromSettings builds a Config from the loaded application configuration.
func FromSettings(rc *config.RecommendConfig, cacheTTL, queryTimeout time.Duration) (*Config, error) {
	loc, err := time.LoadLocation(rc.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", rc.Timezone, err)
	}

	cfg := &Config{
		MinResults:      rc.MinResults,
		DefaultRadiusKm: rc.DefaultRadiusKm,
		MaxRadiusKm:     rc.MaxRadiusKm,
		CandidateLimit:  rc.CandidateLimit,
		ResultLimit:     rc.ResultLimit,
		Weights: Weights{
			Distance:   rc.Weights.Distance,
			Interest:   rc.Weights.Interest,
			Engagement: rc.Weights.Engagement,
			Recency:    rc.Weights.Recency,
		},
		NeutralDistance:    rc.NeutralDistance,
		AdjacentCredit:     rc.AdjacentCredit,
		EngagementCap:      rc.EngagementCap,
		RecencyKnee:        rc.RecencyKnee,
		RecencyDecay:       rc.RecencyDecay,
		PreferredHourBonus: rc.PreferredHourBonus,
		NowWindow:          rc.NowWindow,
		Location:           loc,
		CacheTTL:           cacheTTL,
		QueryTimeout:       queryTimeout,
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.MinResults < 1 {
		return fmt.Errorf("min_results must be positive, got %d", c.MinResults)
	}
	if c.DefaultRadiusKm <= 0 {
		return fmt.Errorf("default_radius_km must be positive, got %f", c.DefaultRadiusKm)
	}
	if c.MaxRadiusKm < c.DefaultRadiusKm {
		return fmt.Errorf("max_radius_km must be >= default_radius_km, got %f < %f", c.MaxRadiusKm, c.DefaultRadiusKm)
	}
	if c.CandidateLimit < 1 {
		return fmt.Errorf("candidate_limit must be positive, got %d", c.CandidateLimit)
	}
	if c.ResultLimit < 1 {
		return fmt.Errorf("result_limit must be positive, got %d", c.ResultLimit)
	}
	w := c.Weights
	if w.Distance < 0 || w.Interest < 0 || w.Engagement < 0 || w.Recency < 0 {
		return fmt.Errorf("weights must be non-negative, got %+v", w)
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("weights must not all be zero")
	}
	if c.NeutralDistance < 0 || c.NeutralDistance > 1 {
		return fmt.Errorf("neutral_distance must be in [0, 1], got %f", c.NeutralDistance)
	}
	if c.AdjacentCredit < 0 || c.AdjacentCredit > 1 {
		return fmt.Errorf("adjacent_credit must be in [0, 1], got %f", c.AdjacentCredit)
	}
	if c.EngagementCap < 1 {
		return fmt.Errorf("engagement_cap must be positive, got %d", c.EngagementCap)
	}
	if c.RecencyKnee < 0 {
		return fmt.Errorf("recency_knee must be non-negative, got %v", c.RecencyKnee)
	}
	if c.RecencyDecay <= 0 {
		return fmt.Errorf("recency_decay must be positive, got %v", c.RecencyDecay)
	}
	if c.PreferredHourBonus < 0 {
		return fmt.Errorf("preferred_hour_bonus must be non-negative, got %f", c.PreferredHourBonus)
	}
	if c.NowWindow <= 0 {
		return fmt.Errorf("now_window must be positive, got %v", c.NowWindow)
	}
	if c.Location == nil {
		return fmt.Errorf("location (timezone) must be set")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive, got %v", c.QueryTimeout)
	}
	return nil
}

// BoundaryRadius is the radius a search-area overlay is drawn with:
// radiusKm <= 0 uses DefaultRadiusKm and larger values are capped at
// MaxRadiusKm.
func (c *Config) BoundaryRadius(radiusKm float64) float64 {
	if radiusKm <= 0 {
		radiusKm = c.DefaultRadiusKm
	}
	return math.Min(radiusKm, c.MaxRadiusKm)
}
