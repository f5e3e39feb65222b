// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package recommend

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/cache"
	"github.com/tomtom215/rendezvous/internal/models"
)

// CandidateKeyPrefix prefixes every cached event query. Change
// notifications invalidate it as a whole.
const CandidateKeyPrefix = "events:"

// EventRepository is the event store the cascade queries.
type EventRepository interface {
	// QueryEvents returns non-expired, non-deleted events in the given
	// statuses and audiences, ordered by start time ascending.
	QueryEvents(ctx context.Context, statuses []models.EventStatus, audiences []models.Audience, limit int) ([]models.CandidateEvent, error)
}

// CandidateCache caches raw repository results by query key.
type CandidateCache = cache.ResultCache[[]models.CandidateEvent]

// NewCandidateCache creates the shared candidate cache.
func NewCandidateCache(cleanupInterval time.Duration) *CandidateCache {
	return cache.NewResultCache[[]models.CandidateEvent](
		cache.WithName("candidates"),
		cache.WithCleanupInterval(cleanupInterval),
	)
}

// CandidateKey is the canonical cache key of a repository query:
//
//	events:active,full|everyone,women_only|500
func CandidateKey(statuses []models.EventStatus, audiences []models.Audience, limit int) string {
	s := make([]string, len(statuses))
	for i, st := range statuses {
		s[i] = string(st)
	}
	a := make([]string, len(audiences))
	for i, au := range audiences {
		a[i] = string(au)
	}
	sort.Strings(s)
	sort.Strings(a)

	var b strings.Builder
	b.WriteString(CandidateKeyPrefix)
	b.WriteString(strings.Join(s, ","))
	b.WriteByte('|')
	b.WriteString(strings.Join(a, ","))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(limit))
	return b.String()
}

// CascadeResult is the outcome of a cascade run.
type CascadeResult struct {
	Candidates []models.CandidateEvent
	Level      FallbackLevel
	// Tried lists every level evaluated, in order.
	Tried []FallbackLevel
	// TotalAvailable counts valid candidates at Level before scoring and
	// trimming.
	TotalAvailable int
	// Excluded lists malformed events that matched Level's constraints.
	// They are not part of Candidates and do not count toward MinResults.
	Excluded []*InvalidCandidate
	// RadiusKm normalizes the distance score at Level.
	RadiusKm float64
	// CacheHit is true when every repository query was served from cache.
	CacheHit bool
}

// Cascade relaxes the user's filters one level at a time until enough
// candidates match.
type Cascade struct {
	cfg    *Config
	repo   EventRepository
	cache  *CandidateCache
	logger zerolog.Logger
}

// NewCascade creates a cascade controller.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCascade(cfg *Config, repo EventRepository, candidates *CandidateCache, logger zerolog.Logger) *Cascade {
	return &Cascade{cfg: cfg, repo: repo, cache: candidates, logger: logger}
}

// levelQuery is the set of constraints active at one level.
type levelQuery struct {
	level      FallbackLevel
	audiences  []models.Audience
	timeRange  TimeRange
	radiusKm   float64 // 0 disables the distance filter
	categories map[string]struct{}
	search     string
}

// Run evaluates levels in order and returns the first that yields at least
// MinResults candidates, or Any. Exact also stops when the user supplied no
// filters. Repository failures abort with a *RepositoryError.
func (c *Cascade) Run(ctx context.Context, user *UserContext, now time.Time) (*CascadeResult, error) {
	res := &CascadeResult{CacheHit: true}
	noFilters := user.Filters.IsEmpty()

	for _, level := range Levels {
		if err := ctx.Err(); err != nil {
			return nil, wrapRepositoryError("query_events", err)
		}

		q := c.queryFor(level, user)
		events, hit, err := c.fetch(ctx, q.audiences)
		if err != nil {
			return nil, err
		}
		res.CacheHit = res.CacheHit && hit
		res.Tried = append(res.Tried, level)

		matched := make([]models.CandidateEvent, 0, len(events))
		var excluded []*InvalidCandidate
		for i := range events {
			if !q.matches(&events[i], user, now, c.cfg) {
				continue
			}
			if err := ValidateCandidate(&events[i]); err != nil {
				var invalid *InvalidCandidate
				if errors.As(err, &invalid) {
					excluded = append(excluded, invalid)
				}
				continue
			}
			matched = append(matched, events[i])
		}

		c.logger.Debug().
			Str("level", level.String()).
			Int("fetched", len(events)).
			Int("matched", len(matched)).
			Int("excluded", len(excluded)).
			Msg("cascade level evaluated")

		done := len(matched) >= c.cfg.MinResults ||
			level == LevelAny ||
			(level == LevelExact && noFilters)
		if !done {
			continue
		}

		if level == LevelAny {
			sort.SliceStable(matched, func(i, j int) bool {
				return soonerThan(&matched[i], &matched[j])
			})
		}
		res.Candidates = matched
		res.Level = level
		res.TotalAvailable = len(matched)
		res.Excluded = excluded
		res.RadiusKm = c.scoreRadius(q)
		return res, nil
	}

	// Unreachable: LevelAny always terminates the loop.
	return res, nil
}

func (c *Cascade) queryFor(level FallbackLevel, user *UserContext) levelQuery {
	if level == LevelAny {
		return levelQuery{level: level, audiences: user.Eligible}
	}

	f := &user.Filters
	q := levelQuery{
		level:     level,
		audiences: narrowAudiences(f.Audience, user),
		timeRange: f.TimeRange,
		search:    strings.ToLower(strings.TrimSpace(f.SearchText)),
	}

	if f.MaxDistanceKm > 0 && user.Location != nil {
		q.radiusKm = math.Min(f.MaxDistanceKm, c.cfg.MaxRadiusKm)
	}
	for _, cat := range f.Categories {
		if cat = normalize(cat); cat == "" {
			continue
		}
		if q.categories == nil {
			q.categories = make(map[string]struct{}, len(f.Categories))
		}
		q.categories[cat] = struct{}{}
	}

	if level >= LevelRelaxedTime {
		q.timeRange = TimeRangeNone
	}
	if level >= LevelRelaxedDistance && q.radiusKm > 0 {
		q.radiusKm = math.Min(2*q.radiusKm, c.cfg.MaxRadiusKm)
	}
	if level >= LevelRelaxedCategory {
		q.categories = nil
		q.search = ""
	}
	if level >= LevelRelaxedAudience {
		q.audiences = user.Eligible
	}
	return q
}

func (c *Cascade) scoreRadius(q levelQuery) float64 {
	switch {
	case q.level == LevelAny:
		return c.cfg.MaxRadiusKm
	case q.radiusKm > 0:
		return q.radiusKm
	default:
		return c.cfg.DefaultRadiusKm
	}
}

// narrowAudiences is the audience set before widening. Everyone is the
// absence of an audience filter and yields every audience the user may see;
// an explicit restricted audience narrows to it, or to nothing if the user
// may not see it.
func narrowAudiences(requested models.Audience, user *UserContext) []models.Audience {
	if requested == "" || requested == models.AudienceEveryone {
		return user.Eligible
	}
	if !user.CanSee(requested) {
		return nil
	}
	return []models.Audience{requested}
}

func (c *Cascade) fetch(ctx context.Context, audiences []models.Audience) ([]models.CandidateEvent, bool, error) {
	if len(audiences) == 0 {
		return nil, true, nil
	}

	statuses := models.RecommendableStatuses
	limit := c.cfg.CandidateLimit
	key := CandidateKey(statuses, audiences, limit)

	events, hit, err := c.cache.Fetch(ctx, key, func(ctx context.Context) ([]models.CandidateEvent, error) {
		qctx, cancel := context.WithTimeout(ctx, c.cfg.QueryTimeout)
		defer cancel()

		evs, err := c.repo.QueryEvents(qctx, statuses, audiences, limit)
		if err != nil {
			return nil, wrapRepositoryError("query_events", err)
		}
		return evs, nil
	}, c.cfg.CacheTTL)
	if err != nil {
		return nil, false, wrapRepositoryError("query_events", err)
	}
	return events, hit, nil
}

// matches applies the level's constraints to one event.
func (q *levelQuery) matches(ev *models.CandidateEvent, user *UserContext, now time.Time, cfg *Config) bool {
	if ev.StartTime.Before(now) {
		return false
	}
	if !user.CanSee(ev.Audience) || !containsAudience(q.audiences, ev.Audience) {
		return false
	}
	if !matchesTimeRange(ev.StartTime, q.timeRange, now, cfg) {
		return false
	}
	if q.radiusKm > 0 {
		d, ok := DistanceKm(ev, user)
		if !ok || d > q.radiusKm {
			return false
		}
	}
	if len(q.categories) > 0 {
		_, catOK := q.categories[normalize(ev.Category)]
		_, subOK := q.categories[normalize(ev.Subcategory)]
		if !catOK && !subOK {
			return false
		}
	}
	if q.search != "" && !matchesSearch(ev, q.search) {
		return false
	}
	return true
}

func matchesTimeRange(start time.Time, r TimeRange, now time.Time, cfg *Config) bool {
	until := start.Sub(now)
	switch r {
	case TimeRangeNow:
		return until <= cfg.NowWindow
	case TimeRangeWithinHour:
		return until <= time.Hour
	case TimeRangeToday:
		sy, sm, sd := start.In(cfg.Location).Date()
		ny, nm, nd := now.In(cfg.Location).Date()
		return sy == ny && sm == nm && sd == nd
	default:
		return true
	}
}

func matchesSearch(ev *models.CandidateEvent, needle string) bool {
	for _, field := range []string{ev.Title, ev.Category, ev.Subcategory, ev.Host.DisplayName} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func containsAudience(set []models.Audience, a models.Audience) bool {
	for _, s := range set {
		if s == a {
			return true
		}
	}
	return false
}
