// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/geo"
	"github.com/tomtom215/rendezvous/internal/metrics"
	"github.com/tomtom215/rendezvous/internal/models"
	"github.com/tomtom215/rendezvous/internal/profile"
)

// ProfileSource loads user profiles. A missing profile is reported as
// profile.ErrNotFound and treated as a new user.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// Stats are the engine's lifetime counters.
type Stats struct {
	Requests        int64            `json:"requests"`
	Errors          int64            `json:"errors"`
	ExcludedEvents  int64            `json:"excluded_events"`
	LevelsSelected  map[string]int64 `json:"levels_selected"`
	CandidateHits   int64            `json:"candidate_cache_hits"`
	CandidateMisses int64            `json:"candidate_cache_misses"`
}

// Engine is the recommendation coordinator. It is safe for concurrent use;
// the candidate cache and the counters below are its only shared state.
type Engine struct {
	cfg      *Config
	logger   zerolog.Logger
	scorer   *Scorer
	cascade  *Cascade
	cache    *CandidateCache
	profiles ProfileSource
	now      func() time.Time

	requestCount  atomic.Int64
	errorCount    atomic.Int64
	excludedCount atomic.Int64
	levelCounts   [LevelAny + 1]atomic.Int64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithProfiles sets the profile source. Without one every user is treated
// as new.
func WithProfiles(p ProfileSource) EngineOption {
	return func(e *Engine) { e.profiles = p }
}

// NewEngine creates a recommendation engine. The candidate cache is shared
// with whatever invalidates it and is not closed by the engine.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(cfg *Config, repo EventRepository, candidates *CandidateCache, taxonomy *Taxonomy, logger zerolog.Logger, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommend config: %w", err)
	}
	if repo == nil {
		return nil, errors.New("event repository is required")
	}
	if candidates == nil {
		return nil, errors.New("candidate cache is required")
	}

	logger = logger.With().Str("component", "recommend").Logger()
	e := &Engine{
		cfg:     cfg,
		logger:  logger,
		scorer:  NewScorer(cfg, taxonomy),
		cascade: NewCascade(cfg, repo, candidates, logger),
		cache:   candidates,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Recommend ranks events for one user. Repository failures are returned as
// *RepositoryError; malformed events are logged and skipped.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	now := e.now()
	e.requestCount.Add(1)

	req = e.prepareRequest(req)
	logger := e.createRequestLogger(req)
	logger.Debug().Msg("processing recommendation request")

	user, err := e.BuildUserContext(ctx, req)
	if err != nil {
		return nil, e.fail(err, start)
	}

	cr, err := e.cascade.Run(ctx, user, now)
	if err != nil {
		return nil, e.fail(err, start)
	}

	for _, invalid := range cr.Excluded {
		e.recordExcluded(invalid, logger)
	}
	ranked, dropped := e.scoreCandidates(cr, user, now, logger)
	if cr.Level == LevelAny {
		SortSoonest(ranked)
	} else {
		SortRanked(ranked)
	}
	if len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}

	resp := e.buildResponse(req, user, cr, ranked, dropped, start, now)
	e.levelCounts[cr.Level].Add(1)
	metrics.RecordRecommendation("success", cr.Level.String(), len(resp.Events), time.Since(start))

	logger.Debug().
		Str("fallback_level", cr.Level.String()).
		Int("total_available", cr.TotalAvailable).
		Int("returned", len(resp.Events)).
		Int("excluded", resp.Metadata.Excluded).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

func (e *Engine) fail(err error, start time.Time) error {
	e.errorCount.Add(1)
	result := "error"
	if IsRepositoryError(err) {
		result = "repository_error"
	}
	metrics.RecordRecommendation(result, "", 0, time.Since(start))
	return err
}

func (e *Engine) prepareRequest(req Request) Request {
	if req.Limit <= 0 || req.Limit > e.cfg.ResultLimit {
		req.Limit = e.cfg.ResultLimit
	}
	req.Filters = normalizeFilters(req.Filters)
	return req
}

func (e *Engine) createRequestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Logger()
}

// normalizeFilters trims search text, lowercases and dedupes categories and
// defaults the audience to Everyone.
func normalizeFilters(f Filters) Filters {
	f.SearchText = strings.TrimSpace(f.SearchText)
	if len(f.Categories) > 0 {
		seen := make(map[string]struct{}, len(f.Categories))
		cats := make([]string, 0, len(f.Categories))
		for _, c := range f.Categories {
			c = normalize(c)
			if c == "" {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cats = append(cats, c)
		}
		f.Categories = cats
	}
	if f.Audience == "" {
		f.Audience = models.AudienceEveryone
	}
	if f.MaxDistanceKm < 0 {
		f.MaxDistanceKm = 0
	}
	return f
}

// BuildUserContext assembles the per-request user view from the request
// and the stored profile.
func (e *Engine) BuildUserContext(ctx context.Context, req Request) (*UserContext, error) {
	user := &UserContext{
		UserID:               req.UserID,
		InterestTags:         []string{},
		EngagementByCategory: map[string]int{},
		PreferredHours:       []int{},
		Eligible:             models.GenderUnspecified.EligibleAudiences(),
		Filters:              normalizeFilters(req.Filters),
	}
	if req.Location != nil && req.Location.Valid() {
		loc := *req.Location
		user.Location = &loc
	}

	if e.profiles == nil || req.UserID == "" {
		return user, nil
	}

	p, err := e.profiles.GetProfile(ctx, req.UserID)
	switch {
	case errors.Is(err, profile.ErrNotFound):
		return user, nil
	case err != nil:
		return nil, fmt.Errorf("load profile: %w", err)
	}

	user.InterestTags = append(user.InterestTags, p.InterestTags...)
	user.Eligible = p.Gender.EligibleAudiences()

	history := HistoryFromParticipations(p.Participations, e.cfg.Location)
	user.EngagementByCategory = Affinity(history)
	user.PreferredHours = PreferredWindow(history)
	return user, nil
}

// scoreCandidates scores the cascade's candidates. The returned count is
// the number of candidates dropped here, which the cascade's validation
// normally leaves at zero.
func (e *Engine) scoreCandidates(cr *CascadeResult, user *UserContext, now time.Time, logger zerolog.Logger) ([]RankedEvent, int) {
	ranked := make([]RankedEvent, 0, len(cr.Candidates))
	dropped := 0

	for i := range cr.Candidates {
		ev := &cr.Candidates[i]
		score, err := e.scorer.Score(ev, user, cr.RadiusKm, now)
		if err != nil {
			dropped++
			var invalid *InvalidCandidate
			if errors.As(err, &invalid) {
				e.recordExcluded(invalid, logger)
				continue
			}
			logger.Error().Err(err).Str("event_id", ev.ID).Msg("scoring failed")
			continue
		}

		re := RankedEvent{CandidateEvent: *ev, Score: score}
		if d, ok := DistanceKm(ev, user); ok {
			re.DistanceKm = &d
		}
		ranked = append(ranked, re)
	}
	return ranked, dropped
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func (e *Engine) recordExcluded(invalid *InvalidCandidate, logger zerolog.Logger) {
	e.excludedCount.Add(1)
	metrics.RecordExcludedCandidate(invalid.Reason)
	logger.Warn().
		Str("event_id", invalid.EventID).
		Str("reason", invalid.Reason).
		Msg("excluding malformed candidate")
}

func (e *Engine) buildResponse(req Request, user *UserContext, cr *CascadeResult, events []RankedEvent, dropped int, start, now time.Time) *Response {
	return &Response{
		Events:         events,
		FallbackLevel:  cr.Level,
		Message:        cr.Level.Message(),
		TotalAvailable: cr.TotalAvailable - dropped,
		Metadata: ResponseMetadata{
			RequestID:         req.RequestID,
			UserID:            req.UserID,
			LevelsTried:       cr.Tried,
			EffectiveRadiusKm: cr.RadiusKm,
			LocationKnown:     user.Location != nil,
			Excluded:          len(cr.Excluded) + dropped,
			CacheHit:          cr.CacheHit,
			LatencyMS:         time.Since(start).Milliseconds(),
			Timestamp:         now.UTC(),
		},
	}
}

// Boundary returns the search polygon around center for map overlays, and
// the radius it was drawn with.
func (e *Engine) Boundary(center geo.Coordinate, radiusKm float64) (geo.Polygon, float64) {
	radiusKm = e.cfg.BoundaryRadius(radiusKm)
	return geo.BoundaryPolygon(center, radiusKm, boundaryPoints), radiusKm
}

const boundaryPoints = 64

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	cs := e.cache.Stats()
	s := Stats{
		Requests:        e.requestCount.Load(),
		Errors:          e.errorCount.Load(),
		ExcludedEvents:  e.excludedCount.Load(),
		LevelsSelected:  make(map[string]int64, len(Levels)),
		CandidateHits:   cs.Hits,
		CandidateMisses: cs.Misses,
	}
	for _, l := range Levels {
		s.LevelsSelected[l.String()] = e.levelCounts[l].Load()
	}
	return s
}

// Config returns the engine configuration. Callers must not modify it.
func (e *Engine) Config() *Config {
	return e.cfg
}
