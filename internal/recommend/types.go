// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package recommend

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/rendezvous/internal/geo"
	"github.com/tomtom215/rendezvous/internal/models"
)

// TimeRange restricts events by how soon they start.
type TimeRange int

const (
	// TimeRangeNone applies no time restriction.
	TimeRangeNone TimeRange = iota
	// TimeRangeNow keeps events starting within the configured now window.
	TimeRangeNow
	// TimeRangeWithinHour keeps events starting within 60 minutes.
	TimeRangeWithinHour
	// TimeRangeToday keeps events starting on the current calendar day.
	TimeRangeToday
)

// String returns the wire name of the time range.
func (r TimeRange) String() string {
	switch r {
	case TimeRangeNone:
		return "none"
	case TimeRangeNow:
		return "now"
	case TimeRangeWithinHour:
		return "within_hour"
	case TimeRangeToday:
		return "today"
	default:
		return "unknown"
	}
}

// ParseTimeRange parses a wire name. The empty string means TimeRangeNone.
func ParseTimeRange(s string) (TimeRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TimeRangeNone, nil
	case "now":
		return TimeRangeNow, nil
	case "within_hour", "hour":
		return TimeRangeWithinHour, nil
	case "today":
		return TimeRangeToday, nil
	default:
		return TimeRangeNone, fmt.Errorf("unknown time range %q", s)
	}
}

// FallbackLevel is how far the cascade relaxed the user's filters.
// Levels are ordered from strictest to loosest.
type FallbackLevel int

const (
	LevelExact FallbackLevel = iota
	LevelRelaxedTime
	LevelRelaxedDistance
	LevelRelaxedCategory
	LevelRelaxedAudience
	// LevelAny returns every eligible upcoming event, soonest start first.
	LevelAny
)

// Levels lists every fallback level in cascade order.
var Levels = []FallbackLevel{
	LevelExact,
	LevelRelaxedTime,
	LevelRelaxedDistance,
	LevelRelaxedCategory,
	LevelRelaxedAudience,
	LevelAny,
}

// String returns the wire name of the level.
func (l FallbackLevel) String() string {
	switch l {
	case LevelExact:
		return "exact"
	case LevelRelaxedTime:
		return "relaxed_time"
	case LevelRelaxedDistance:
		return "relaxed_distance"
	case LevelRelaxedCategory:
		return "relaxed_category"
	case LevelRelaxedAudience:
		return "relaxed_audience"
	case LevelAny:
		return "any"
	default:
		return "unknown"
	}
}

// Message is the user-facing explanation shown for a relaxed result set.
// Exact has no message.
func (l FallbackLevel) Message() string {
	switch l {
	case LevelRelaxedTime:
		return "Nothing in that time window, showing events at other times"
	case LevelRelaxedDistance:
		return "No exact matches nearby, showing options a little further away"
	case LevelRelaxedCategory:
		return "Nothing in those categories, showing other events nearby"
	case LevelRelaxedAudience:
		return "Showing events open to a wider audience"
	case LevelAny:
		return "Nothing matched your filters, showing everything coming up"
	default:
		return ""
	}
}

// MarshalText encodes the level as its wire name.
func (l FallbackLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a wire name.
func (l *FallbackLevel) UnmarshalText(text []byte) error {
	for _, lvl := range Levels {
		if lvl.String() == string(text) {
			*l = lvl
			return nil
		}
	}
	return fmt.Errorf("unknown fallback level %q", text)
}

// Filters are the user's active search constraints.
type Filters struct {
	SearchText string    `json:"search_text,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	TimeRange  TimeRange `json:"time_range"`
	// MaxDistanceKm <= 0 means no distance restriction.
	MaxDistanceKm float64         `json:"max_distance_km,omitempty"`
	Audience      models.Audience `json:"audience"`
}

// IsEmpty reports whether the user supplied no filters at all.
func (f *Filters) IsEmpty() bool {
	return strings.TrimSpace(f.SearchText) == "" &&
		len(f.Categories) == 0 &&
		f.TimeRange == TimeRangeNone &&
		f.MaxDistanceKm <= 0 &&
		(f.Audience == "" || f.Audience == models.AudienceEveryone)
}

// UserContext is everything the engine knows about the requesting user.
// It is built per request and never shared.
type UserContext struct {
	UserID   string
	Location *geo.Coordinate

	InterestTags         []string
	EngagementByCategory map[string]int
	// PreferredHours is empty or exactly four consecutive hours mod 24.
	PreferredHours []int

	// Eligible is the widest audience set the user may see.
	Eligible []models.Audience

	Filters Filters
}

// CanSee reports whether the user is eligible for audience a.
func (u *UserContext) CanSee(a models.Audience) bool {
	for _, e := range u.Eligible {
		if e == a {
			return true
		}
	}
	return false
}

// PrefersHour reports whether hour falls in the preferred window.
func (u *UserContext) PrefersHour(hour int) bool {
	for _, h := range u.PreferredHours {
		if h == hour {
			return true
		}
	}
	return false
}

// ScoreBreakdown is the per-factor contribution to a candidate's rank.
// Every field lies in [0,1].
type ScoreBreakdown struct {
	Distance   float64 `json:"distance"`
	Interest   float64 `json:"interest"`
	Engagement float64 `json:"engagement"`
	Recency    float64 `json:"recency"`
	Total      float64 `json:"total"`
}

// RankedEvent is a candidate with its score and computed distance.
// DistanceKm is nil when the user's location is unknown.
type RankedEvent struct {
	models.CandidateEvent
	DistanceKm *float64       `json:"distance_km,omitempty"`
	Score      ScoreBreakdown `json:"score"`
}

// Request is a recommendation request.
type Request struct {
	RequestID string
	UserID    string
	Filters   Filters
	// Location is nil when the client could not resolve one.
	Location *geo.Coordinate
	// Limit <= 0 uses the configured result limit.
	Limit int
}

// Response is the ranked result of a recommendation request.
type Response struct {
	Events         []RankedEvent    `json:"events"`
	FallbackLevel  FallbackLevel    `json:"fallback_level"`
	Message        string           `json:"message,omitempty"`
	TotalAvailable int              `json:"total_available"`
	Metadata       ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries diagnostics for a response.
type ResponseMetadata struct {
	RequestID         string          `json:"request_id,omitempty"`
	UserID            string          `json:"user_id,omitempty"`
	LevelsTried       []FallbackLevel `json:"levels_tried"`
	EffectiveRadiusKm float64         `json:"effective_radius_km"`
	LocationKnown     bool            `json:"location_known"`
	Excluded          int             `json:"excluded"`
	CacheHit          bool            `json:"cache_hit"`
	LatencyMS         int64           `json:"latency_ms"`
	Timestamp         time.Time       `json:"timestamp"`
}
