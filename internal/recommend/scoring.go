// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package recommend

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/rendezvous/internal/geo"
	"github.com/tomtom215/rendezvous/internal/models"
)

// Scorer computes ScoreBreakdowns. It holds no mutable state.
type Scorer struct {
	cfg      *Config
	taxonomy *Taxonomy
}

// NewScorer creates a scorer. A nil taxonomy uses DefaultTaxonomy.
func NewScorer(cfg *Config, taxonomy *Taxonomy) *Scorer {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	return &Scorer{cfg: cfg, taxonomy: taxonomy}
}

// ValidateCandidate returns an *InvalidCandidate if ev cannot be scored.
func ValidateCandidate(ev *models.CandidateEvent) error {
	reason := ""
	switch {
	case strings.TrimSpace(ev.ID) == "":
		reason = ReasonMissingID
	case ev.Venue == nil:
		reason = ReasonMissingVenue
	case !ev.Venue.Valid():
		reason = ReasonInvalidVenue
	case ev.StartTime.IsZero():
		reason = ReasonMissingStart
	case ev.Capacity < 0 || ev.ParticipantCount < 0 || ev.ParticipantCount > ev.Capacity:
		reason = ReasonBadParticipation
	case !ev.Status.Recommendable():
		reason = ReasonBadStatus
	case !ev.Audience.Valid():
		reason = ReasonBadAudience
	}
	if reason != "" {
		return &InvalidCandidate{EventID: ev.ID, Reason: reason}
	}
	return nil
}

// Score computes the breakdown for ev. maxDistanceKm is the effective
// radius of the cascade level. It returns *InvalidCandidate for malformed
// events.
func (s *Scorer) Score(ev *models.CandidateEvent, user *UserContext, maxDistanceKm float64, now time.Time) (ScoreBreakdown, error) {
	if err := ValidateCandidate(ev); err != nil {
		return ScoreBreakdown{}, err
	}

	b := ScoreBreakdown{
		Distance:   s.distance(ev, user, maxDistanceKm),
		Interest:   s.interest(ev, user.InterestTags),
		Engagement: s.engagement(user.EngagementByCategory[normalize(ev.Category)]),
		Recency:    s.recency(ev.StartTime, user, now),
	}

	w := s.cfg.Weights
	b.Total = (w.Distance*b.Distance +
		w.Interest*b.Interest +
		w.Engagement*b.Engagement +
		w.Recency*b.Recency) / w.Sum()
	return b, nil
}

// DistanceKm returns the distance from the user to ev, if both are known.
func DistanceKm(ev *models.CandidateEvent, user *UserContext) (float64, bool) {
	if user.Location == nil || ev.Venue == nil {
		return 0, false
	}
	return geo.DistanceKm(*user.Location, *ev.Venue), true
}

func (s *Scorer) distance(ev *models.CandidateEvent, user *UserContext, maxDistanceKm float64) float64 {
	d, ok := DistanceKm(ev, user)
	if !ok || maxDistanceKm <= 0 {
		return s.cfg.NeutralDistance
	}
	return 1 - clamp01(d/maxDistanceKm)
}

// interest is the best single tag match: 1 for the event's own category,
// AdjacentCredit for a related one. Matches never add up.
func (s *Scorer) interest(ev *models.CandidateEvent, tags []string) float64 {
	eventCats := []string{normalize(ev.Category)}
	if sub := normalize(ev.Subcategory); sub != "" {
		eventCats = append(eventCats, sub)
	}

	best := 0.0
	for _, tag := range tags {
		cat, ok := s.taxonomy.CategoryFor(tag)
		if !ok {
			continue
		}
		for _, ec := range eventCats {
			if cat == ec {
				return 1
			}
			if s.taxonomy.Adjacent(cat, ec) {
				best = math.Max(best, s.cfg.AdjacentCredit)
			}
		}
	}
	return best
}

func (s *Scorer) engagement(n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(1, math.Log1p(float64(n))/math.Log1p(float64(s.cfg.EngagementCap)))
}

func (s *Scorer) recency(start time.Time, user *UserContext, now time.Time) float64 {
	hours := math.Max(0, start.Sub(now).Hours())
	knee := s.cfg.RecencyKnee.Hours()

	base := 1.0
	if hours > knee {
		base = 1 / (1 + (hours-knee)/s.cfg.RecencyDecay.Hours())
	}

	bonus := 0.0
	if user.PrefersHour(start.In(s.cfg.Location).Hour()) {
		bonus = s.cfg.PreferredHourBonus
	}
	return (base + bonus) / (1 + s.cfg.PreferredHourBonus)
}

// SortRanked orders events by total score descending, then start time, then
// id, so equal inputs always produce equal output.
func SortRanked(events []RankedEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := &events[i], &events[j]
		if a.Score.Total != b.Score.Total {
			return a.Score.Total > b.Score.Total
		}
		return soonerThan(&a.CandidateEvent, &b.CandidateEvent)
	})
}

// SortSoonest orders events by start time, then id.
func SortSoonest(events []RankedEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return soonerThan(&events[i].CandidateEvent, &events[j].CandidateEvent)
	})
}

func soonerThan(a, b *models.CandidateEvent) bool {
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.Before(b.StartTime)
	}
	return a.ID < b.ID
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
