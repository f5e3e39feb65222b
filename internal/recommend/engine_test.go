// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/geo"
	"github.com/tomtom215/rendezvous/internal/models"
	"github.com/tomtom215/rendezvous/internal/profile"
)

var (
	london  = geo.Coordinate{Lat: 51.5074, Lon: -0.1278}
	testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	errBoom = errors.New("boom")
)

// mockRepository implements EventRepository over a fixed slice.
type mockRepository struct {
	mu     sync.Mutex
	events []models.CandidateEvent
	err    error
	calls  atomic.Int32
	delay  time.Duration
}

func (m *mockRepository) QueryEvents(ctx context.Context, statuses []models.EventStatus, audiences []models.Audience, limit int) ([]models.CandidateEvent, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	out := make([]models.CandidateEvent, 0, len(m.events))
	for _, ev := range m.events {
		if !containsStatus(statuses, ev.Status) || !containsAudience(audiences, ev.Audience) {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func containsStatus(set []models.EventStatus, s models.EventStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// mockProfiles implements ProfileSource.
type mockProfiles struct {
	profiles map[string]*models.UserProfile
	err      error
	calls    atomic.Int32
}

func (m *mockProfiles) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return p, nil
}

// newEvent returns a valid active event for everyone at venue.
func newEvent(id, category string, venue geo.Coordinate, start time.Time) models.CandidateEvent {
	v := venue
	return models.CandidateEvent{
		ID:               id,
		Title:            "Event " + id,
		Category:         category,
		Host:             models.Host{ID: "h-" + id, DisplayName: "Host " + id},
		Venue:            &v,
		StartTime:        start,
		Capacity:         10,
		ParticipantCount: 2,
		Audience:         models.AudienceEveryone,
		Status:           models.StatusActive,
	}
}

func at(km, bearing float64) geo.Coordinate {
	return geo.Destination(london, km, bearing)
}

func newTestEngine(t *testing.T, cfg *Config, repo EventRepository, opts ...EngineOption) (*Engine, *CandidateCache) {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	candidates := NewCandidateCache(0)
	t.Cleanup(candidates.Close)

	opts = append([]EngineOption{WithClock(func() time.Time { return testNow })}, opts...)
	e, err := NewEngine(cfg, repo, candidates, nil, zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e, candidates
}

func eventIDs(events []RankedEvent) []string {
	ids := make([]string, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}
	return ids
}

func assertNonDecreasing(t *testing.T, tried []FallbackLevel) {
	t.Helper()
	for i := 1; i < len(tried); i++ {
		if tried[i] < tried[i-1] {
			t.Fatalf("levels tried %v are not non-decreasing", tried)
		}
	}
}

func TestNewEngine_Validation(t *testing.T) {
	t.Parallel()

	candidates := NewCandidateCache(0)
	defer candidates.Close()
	repo := &mockRepository{}

	if _, err := NewEngine(nil, repo, candidates, nil, zerolog.Nop()); err != nil {
		t.Errorf("nil config should use defaults, got %v", err)
	}
	if _, err := NewEngine(DefaultConfig(), nil, candidates, nil, zerolog.Nop()); err == nil {
		t.Error("expected error for nil repository")
	}
	if _, err := NewEngine(DefaultConfig(), repo, nil, nil, zerolog.Nop()); err == nil {
		t.Error("expected error for nil cache")
	}

	bad := DefaultConfig()
	bad.MinResults = 0
	if _, err := NewEngine(bad, repo, candidates, nil, zerolog.Nop()); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestEngine_LondonScenario(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{events: []models.CandidateEvent{
		newEvent("near", "coffee", at(0.5, 0), testNow.Add(2*time.Hour)),
		newEvent("far", "coffee", at(6, 90), testNow.Add(2*time.Hour)),
		newEvent("tea", "food", at(0.3, 180), testNow.Add(2*time.Hour)),
	}}
	filters := Filters{Categories: []string{"coffee"}, MaxDistanceKm: 5}
	loc := london

	t.Run("exact keeps only the near event", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.MinResults = 1
		e, _ := newTestEngine(t, cfg, repo)

		resp, err := e.Recommend(context.Background(), Request{UserID: "u1", Filters: filters, Location: &loc})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if resp.FallbackLevel != LevelExact {
			t.Errorf("FallbackLevel = %v, want exact", resp.FallbackLevel)
		}
		if ids := eventIDs(resp.Events); len(ids) != 1 || ids[0] != "near" {
			t.Errorf("events = %v, want [near]", ids)
		}
		if resp.Message != "" {
			t.Errorf("Message = %q, want empty at exact", resp.Message)
		}
	})

	t.Run("far event appears at relaxed distance", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.MinResults = 2
		e, _ := newTestEngine(t, cfg, repo)

		resp, err := e.Recommend(context.Background(), Request{UserID: "u1", Filters: filters, Location: &loc})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if resp.FallbackLevel != LevelRelaxedDistance {
			t.Errorf("FallbackLevel = %v, want relaxed_distance", resp.FallbackLevel)
		}
		ids := eventIDs(resp.Events)
		if len(ids) != 2 || ids[0] != "near" || ids[1] != "far" {
			t.Errorf("events = %v, want [near far]", ids)
		}
		want := []FallbackLevel{LevelExact, LevelRelaxedTime, LevelRelaxedDistance}
		if len(resp.Metadata.LevelsTried) != len(want) {
			t.Fatalf("LevelsTried = %v, want %v", resp.Metadata.LevelsTried, want)
		}
		for i := range want {
			if resp.Metadata.LevelsTried[i] != want[i] {
				t.Errorf("LevelsTried[%d] = %v, want %v", i, resp.Metadata.LevelsTried[i], want[i])
			}
		}
		if resp.Metadata.EffectiveRadiusKm != 10 {
			t.Errorf("EffectiveRadiusKm = %v, want 10", resp.Metadata.EffectiveRadiusKm)
		}
		if resp.Message == "" {
			t.Error("relaxed levels should carry a message")
		}
		if resp.Events[0].DistanceKm == nil || *resp.Events[0].DistanceKm > 0.51 {
			t.Errorf("near DistanceKm = %v, want ~0.5", resp.Events[0].DistanceKm)
		}
	})
}

func TestEngine_MinimumResultGuarantee(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		available int
		want      int
	}{
		{"fewer than min results", 3, 3},
		{"more than min results", 9, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			events := make([]models.CandidateEvent, 0, tt.available)
			for i := 0; i < tt.available; i++ {
				id := string(rune('a' + i))
				events = append(events, newEvent(id, "gaming", at(float64(i+1)*20, 45), testNow.Add(time.Duration(i+1)*time.Hour)))
			}
			repo := &mockRepository{events: events}
			e, _ := newTestEngine(t, nil, repo)

			loc := london
			resp, err := e.Recommend(context.Background(), Request{
				UserID:   "u1",
				Location: &loc,
				Filters: Filters{
					Categories:    []string{"pottery"},
					MaxDistanceKm: 1,
					TimeRange:     TimeRangeNow,
				},
			})
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if len(resp.Events) < tt.want {
				t.Errorf("len(Events) = %d, want at least %d (level %v)", len(resp.Events), tt.want, resp.FallbackLevel)
			}
			assertNonDecreasing(t, resp.Metadata.LevelsTried)
		})
	}
}

func TestEngine_AnyLevelOrdersSoonestFirst(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{events: []models.CandidateEvent{
		newEvent("late", "music", at(1, 0), testNow.Add(30*time.Hour)),
		newEvent("soon", "music", at(80, 0), testNow.Add(1*time.Hour)),
		newEvent("mid", "music", at(2, 0), testNow.Add(5*time.Hour)),
	}}
	e, _ := newTestEngine(t, nil, repo)

	loc := london
	resp, err := e.Recommend(context.Background(), Request{
		UserID:   "u1",
		Location: &loc,
		Filters:  Filters{SearchText: "no such thing"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.FallbackLevel != LevelAny {
		t.Fatalf("FallbackLevel = %v, want any", resp.FallbackLevel)
	}
	ids := eventIDs(resp.Events)
	want := []string{"soon", "mid", "late"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("events = %v, want %v", ids, want)
		}
	}
}

func TestEngine_NoFiltersStopsAtExact(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{events: []models.CandidateEvent{
		newEvent("a", "music", at(1, 0), testNow.Add(time.Hour)),
	}}
	e, _ := newTestEngine(t, nil, repo)

	resp, err := e.Recommend(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.FallbackLevel != LevelExact {
		t.Errorf("FallbackLevel = %v, want exact", resp.FallbackLevel)
	}
	if resp.TotalAvailable != 1 {
		t.Errorf("TotalAvailable = %d, want 1", resp.TotalAvailable)
	}
	if resp.Metadata.LocationKnown {
		t.Error("LocationKnown should be false")
	}
}

func TestEngine_DeterministicOrdering(t *testing.T) {
	t.Parallel()

	start := testNow.Add(4 * time.Hour)
	repo := &mockRepository{events: []models.CandidateEvent{
		newEvent("c", "music", at(2, 0), start),
		newEvent("a", "music", at(2, 0), start),
		newEvent("b", "music", at(2, 0), start),
		newEvent("d", "arts", at(3, 90), start.Add(time.Hour)),
		newEvent("e", "coffee", at(1, 180), start.Add(2*time.Hour)),
	}}
	e, candidates := newTestEngine(t, nil, repo)

	loc := london
	req := Request{UserID: "u1", Location: &loc}
	first, err := e.Recommend(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	candidates.InvalidatePrefix(CandidateKeyPrefix)
	second, err := e.Recommend(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	a, b := eventIDs(first.Events), eventIDs(second.Events)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("order differs: %v vs %v", a, b)
		}
	}

	// Identical events tie on score and start, so id decides.
	pos := map[string]int{}
	for i, id := range a {
		pos[id] = i
	}
	if !(pos["a"] < pos["b"] && pos["b"] < pos["c"]) {
		t.Errorf("tied events not ordered by id: %v", a)
	}
}

func TestEngine_NeutralLocation(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{events: []models.CandidateEvent{
		newEvent("a", "music", at(1, 0), testNow.Add(time.Hour)),
		newEvent("b", "music", at(40, 0), testNow.Add(time.Hour)),
		newEvent("c", "music", geo.Coordinate{Lat: -33.86, Lon: 151.21}, testNow.Add(time.Hour)),
	}}
	e, _ := newTestEngine(t, nil, repo)

	resp, err := e.Recommend(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Events) != 3 {
		t.Fatalf("len(Events) = %d, want 3", len(resp.Events))
	}
	for _, ev := range resp.Events {
		if ev.Score.Distance != e.Config().NeutralDistance {
			t.Errorf("event %s Distance = %v, want neutral %v", ev.ID, ev.Score.Distance, e.Config().NeutralDistance)
		}
		if ev.DistanceKm != nil {
			t.Errorf("event %s DistanceKm should be nil without a user location", ev.ID)
		}
	}
}

func TestEngine_InvalidLocationTreatedAsAbsent(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{events: []models.CandidateEvent{
		newEvent("a", "music", at(1, 0), testNow.Add(time.Hour)),
	}}
	e, _ := newTestEngine(t, nil, repo)

	bad := geo.Coordinate{Lat: 123, Lon: 0}
	resp, err := e.Recommend(context.Background(), Request{UserID: "u1", Location: &bad})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Metadata.LocationKnown {
		t.Error("invalid coordinates should be treated as unknown")
	}
}

func TestEngine_CacheIdempotence(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{events: []models.CandidateEvent{
		newEvent("a", "music", at(1, 0), testNow.Add(time.Hour)),
	}}
	e, candidates := newTestEngine(t, nil, repo)
	ctx := context.Background()

	first, err := e.Recommend(ctx, Request{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if first.Metadata.CacheHit {
		t.Error("first request should miss the cache")
	}
	second, err := e.Recommend(ctx, Request{UserID: "u2"})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Metadata.CacheHit {
		t.Error("second request should hit the cache")
	}
	if got := repo.calls.Load(); got != 1 {
		t.Errorf("repository calls = %d, want 1", got)
	}

	if n := candidates.InvalidatePrefix(CandidateKeyPrefix); n != 1 {
		t.Errorf("InvalidatePrefix() = %d, want 1", n)
	}
	if _, err := e.Recommend(ctx, Request{UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if got := repo.calls.Load(); got != 2 {
		t.Errorf("repository calls after invalidation = %d, want 2", got)
	}
}

func TestEngine_RepositoryError(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{err: errBoom}
	e, candidates := newTestEngine(t, nil, repo)

	_, err := e.Recommend(context.Background(), Request{UserID: "u1"})
	if err == nil {
		t.Fatal("expected error")
	}
	var repoErr *RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("error = %T %v, want *RepositoryError", err, err)
	}
	if repoErr.Op != "query_events" {
		t.Errorf("Op = %q, want query_events", repoErr.Op)
	}
	if !errors.Is(err, errBoom) {
		t.Error("RepositoryError should unwrap to the repository error")
	}
	if candidates.Len() != 0 {
		t.Error("failed fetch should not be cached")
	}
	if s := e.Stats(); s.Errors != 1 || s.Requests != 1 {
		t.Errorf("Stats = %+v, want 1 request and 1 error", s)
	}
}

func TestEngine_RepositoryTimeout(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.QueryTimeout = 20 * time.Millisecond
	repo := &mockRepository{delay: time.Second}
	e, _ := newTestEngine(t, cfg, repo)

	_, err := e.Recommend(context.Background(), Request{UserID: "u1"})
	var repoErr *RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("error = %v, want *RepositoryError", err)
	}
	if !repoErr.Timeout() {
		t.Errorf("Timeout() = false for %v", err)
	}
}

func TestEngine_ExcludesInvalidCandidates(t *testing.T) {
	t.Parallel()

	noVenue := newEvent("novenue", "music", at(1, 0), testNow.Add(time.Hour))
	noVenue.Venue = nil
	overfull := newEvent("overfull", "music", at(1, 0), testNow.Add(time.Hour))
	overfull.ParticipantCount = 50

	repo := &mockRepository{events: []models.CandidateEvent{
		newEvent("ok", "music", at(1, 0), testNow.Add(time.Hour)),
		noVenue,
		overfull,
	}}
	e, _ := newTestEngine(t, nil, repo)

	resp, err := e.Recommend(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if ids := eventIDs(resp.Events); len(ids) != 1 || ids[0] != "ok" {
		t.Errorf("events = %v, want [ok]", ids)
	}
	if resp.Metadata.Excluded != 2 {
		t.Errorf("Excluded = %d, want 2", resp.Metadata.Excluded)
	}
	if resp.TotalAvailable != 1 {
		t.Errorf("TotalAvailable = %d, want 1", resp.TotalAvailable)
	}
	if e.Stats().ExcludedEvents != 2 {
		t.Errorf("Stats().ExcludedEvents = %d, want 2", e.Stats().ExcludedEvents)
	}
}

func TestEngine_SkipsStartedEvents(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{events: []models.CandidateEvent{
		newEvent("past", "music", at(1, 0), testNow.Add(-time.Minute)),
		newEvent("future", "music", at(1, 0), testNow.Add(time.Minute)),
	}}
	e, _ := newTestEngine(t, nil, repo)

	resp, err := e.Recommend(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if ids := eventIDs(resp.Events); len(ids) != 1 || ids[0] != "future" {
		t.Errorf("events = %v, want [future]", ids)
	}
}

func TestEngine_AudienceEligibility(t *testing.T) {
	t.Parallel()

	womenOnly := newEvent("w", "wellness", at(1, 0), testNow.Add(time.Hour))
	womenOnly.Audience = models.AudienceWomenOnly
	menOnly := newEvent("m", "wellness", at(1, 0), testNow.Add(time.Hour))
	menOnly.Audience = models.AudienceMenOnly
	open := newEvent("o", "wellness", at(1, 0), testNow.Add(time.Hour))

	repo := &mockRepository{events: []models.CandidateEvent{womenOnly, menOnly, open}}
	profiles := &mockProfiles{profiles: map[string]*models.UserProfile{
		"alice": {UserID: "alice", Gender: models.GenderFemale},
		"bob":   {UserID: "bob", Gender: models.GenderMale},
	}}

	tests := []struct {
		user     string
		audience models.Audience
		want     map[string]bool
	}{
		{"alice", models.AudienceWomenOnly, map[string]bool{"w": true, "o": true}},
		{"bob", models.AudienceMenOnly, map[string]bool{"m": true, "o": true}},
		{"carol", models.AudienceWomenOnly, map[string]bool{"o": true}},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			cfg.MinResults = 2
			e, _ := newTestEngine(t, cfg, repo, WithProfiles(profiles))

			resp, err := e.Recommend(context.Background(), Request{
				UserID:  tt.user,
				Filters: Filters{Audience: tt.audience},
			})
			if err != nil {
				t.Fatal(err)
			}
			got := map[string]bool{}
			for _, ev := range resp.Events {
				got[ev.ID] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("events = %v, want %v", got, tt.want)
			}
			for id := range tt.want {
				if !got[id] {
					t.Errorf("missing event %s in %v", id, got)
				}
			}
		})
	}
}

func TestEngine_ProfileSignals(t *testing.T) {
	t.Parallel()

	history := make([]models.Participation, 0, 3)
	for i := 0; i < 3; i++ {
		history = append(history, models.Participation{
			EventID:   "past-" + string(rune('a'+i)),
			Category:  "wellness",
			StartTime: time.Date(2026, 2, 1+i, 18, 0, 0, 0, time.UTC),
			Approved:  true,
		})
	}
	profiles := &mockProfiles{profiles: map[string]*models.UserProfile{
		"u1": {UserID: "u1", InterestTags: []string{"yoga"}, Participations: history},
	}}

	repo := &mockRepository{events: []models.CandidateEvent{
		newEvent("gaming", "gaming", at(1, 0), testNow.Add(3*time.Hour)),
		newEvent("wellness", "wellness", at(1, 0), testNow.Add(3*time.Hour)),
	}}
	e, _ := newTestEngine(t, nil, repo, WithProfiles(profiles))

	user, err := e.BuildUserContext(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if user.EngagementByCategory["wellness"] != 3 {
		t.Errorf("EngagementByCategory = %v, want wellness:3", user.EngagementByCategory)
	}
	if len(user.PreferredHours) != 4 {
		t.Errorf("PreferredHours = %v, want 4 hours", user.PreferredHours)
	}

	resp, err := e.Recommend(context.Background(), Request{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Events[0].ID != "wellness" {
		t.Errorf("first event = %s, want wellness", resp.Events[0].ID)
	}
	if resp.Events[0].Score.Engagement <= resp.Events[1].Score.Engagement {
		t.Error("wellness engagement should exceed gaming engagement")
	}
	if resp.Events[0].Score.Interest != 1 {
		t.Errorf("wellness Interest = %v, want 1 via the yoga tag", resp.Events[0].Score.Interest)
	}
}

func TestEngine_ProfileErrors(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	e, _ := newTestEngine(t, nil, repo, WithProfiles(&mockProfiles{err: errBoom}))

	_, err := e.Recommend(context.Background(), Request{UserID: "u1"})
	if !errors.Is(err, errBoom) {
		t.Errorf("error = %v, want wrapped profile error", err)
	}
	if IsRepositoryError(err) {
		t.Error("profile failures are not repository errors")
	}
}

func TestEngine_Limit(t *testing.T) {
	t.Parallel()

	events := make([]models.CandidateEvent, 0, 10)
	for i := 0; i < 10; i++ {
		events = append(events, newEvent(string(rune('a'+i)), "music", at(1, 0), testNow.Add(time.Duration(i+1)*time.Hour)))
	}
	e, _ := newTestEngine(t, nil, &mockRepository{events: events})

	resp, err := e.Recommend(context.Background(), Request{UserID: "u1", Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Events) != 3 {
		t.Errorf("len(Events) = %d, want 3", len(resp.Events))
	}
	if resp.TotalAvailable != 10 {
		t.Errorf("TotalAvailable = %d, want 10", resp.TotalAvailable)
	}
}

func TestEngine_ConcurrentRequests(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		events: []models.CandidateEvent{newEvent("a", "music", at(1, 0), testNow.Add(time.Hour))},
		delay:  50 * time.Millisecond,
	}
	e, _ := newTestEngine(t, nil, repo)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Recommend(context.Background(), Request{UserID: "u"}); err != nil {
				t.Errorf("Recommend() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := repo.calls.Load(); got != 1 {
		t.Errorf("repository calls = %d, want 1 for concurrent identical queries", got)
	}
	if got := e.Stats().Requests; got != 20 {
		t.Errorf("Stats().Requests = %d, want 20", got)
	}
}

func TestEngine_Boundary(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, nil, &mockRepository{})

	poly, radius := e.Boundary(london, 0)
	if radius != 25 {
		t.Errorf("radius = %v, want default 25", radius)
	}
	if len(poly) != boundaryPoints+1 {
		t.Fatalf("len(poly) = %d, want %d", len(poly), boundaryPoints+1)
	}
	if d := geo.DistanceKm(london, poly[0]); d < 24.9 || d > 25.1 {
		t.Errorf("default radius vertex distance = %v, want 25", d)
	}

	poly, radius = e.Boundary(london, 1000)
	if radius != 100 {
		t.Errorf("radius = %v, want cap 100", radius)
	}
	if d := geo.DistanceKm(london, poly[0]); d > 100.1 {
		t.Errorf("capped radius vertex distance = %v, want <= 100", d)
	}
}

func TestNormalizeFilters(t *testing.T) {
	t.Parallel()

	f := normalizeFilters(Filters{
		SearchText:    "  jazz ",
		Categories:    []string{"Music", " music", "", "ARTS"},
		MaxDistanceKm: -3,
	})
	if f.SearchText != "jazz" {
		t.Errorf("SearchText = %q", f.SearchText)
	}
	if len(f.Categories) != 2 || f.Categories[0] != "music" || f.Categories[1] != "arts" {
		t.Errorf("Categories = %v, want [music arts]", f.Categories)
	}
	if f.Audience != models.AudienceEveryone {
		t.Errorf("Audience = %q, want everyone", f.Audience)
	}
	if f.MaxDistanceKm != 0 {
		t.Errorf("MaxDistanceKm = %v, want 0", f.MaxDistanceKm)
	}
	if f.IsEmpty() {
		t.Error("filters with categories should not be empty")
	}
}

func TestEngine_UnfilteredUserSeesEligibleRestrictedEvents(t *testing.T) {
	t.Parallel()

	var events []models.CandidateEvent
	for i := 0; i < 8; i++ {
		ev := newEvent(fmt.Sprintf("w%d", i), "wellness", at(1, float64(i*40)), testNow.Add(time.Duration(i+1)*time.Hour))
		ev.Audience = models.AudienceWomenOnly
		events = append(events, ev)
	}
	repo := &mockRepository{events: events}
	profiles := &mockProfiles{profiles: map[string]*models.UserProfile{
		"alice": {UserID: "alice", Gender: models.GenderFemale},
	}}
	e, _ := newTestEngine(t, nil, repo, WithProfiles(profiles))

	loc := london
	resp, err := e.Recommend(context.Background(), Request{UserID: "alice", Location: &loc})
	if err != nil {
		t.Fatal(err)
	}
	if resp.FallbackLevel != LevelExact {
		t.Errorf("FallbackLevel = %v, want exact", resp.FallbackLevel)
	}
	if len(resp.Events) != 8 || resp.TotalAvailable != 8 {
		t.Errorf("events = %d total = %d, want 8/8", len(resp.Events), resp.TotalAvailable)
	}

	// Without a profile the same events stay hidden at every level.
	resp, err = e.Recommend(context.Background(), Request{UserID: "nobody", Location: &loc})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Events) != 0 {
		t.Errorf("ineligible user got %v", eventIDs(resp.Events))
	}
}

func TestEngine_InvalidCandidatesDoNotSatisfyMinResults(t *testing.T) {
	t.Parallel()

	var events []models.CandidateEvent
	for i := 0; i < 5; i++ {
		events = append(events, newEvent(fmt.Sprintf("coffee-%d", i), "coffee", at(1, 0), testNow.Add(time.Duration(i+1)*time.Hour)))
	}
	broken := newEvent("coffee-broken", "coffee", at(1, 0), testNow.Add(time.Hour))
	broken.ParticipantCount = broken.Capacity + 1
	events = append(events, broken)
	for i := 0; i < 10; i++ {
		events = append(events, newEvent(fmt.Sprintf("gaming-%d", i), "gaming", at(1, 0), testNow.Add(2*time.Hour)))
	}

	cfg := DefaultConfig()
	cfg.MinResults = 6
	e, _ := newTestEngine(t, cfg, &mockRepository{events: events})

	resp, err := e.Recommend(context.Background(), Request{
		UserID:  "u1",
		Filters: Filters{Categories: []string{"coffee"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.FallbackLevel != LevelRelaxedCategory {
		t.Errorf("FallbackLevel = %v, want relaxed_category", resp.FallbackLevel)
	}
	if len(resp.Events) < cfg.MinResults {
		t.Errorf("events = %d, want at least %d", len(resp.Events), cfg.MinResults)
	}
	for _, ev := range resp.Events {
		if ev.ID == broken.ID {
			t.Error("malformed event was returned")
		}
	}
	if resp.Metadata.Excluded != 1 {
		t.Errorf("Excluded = %d, want 1", resp.Metadata.Excluded)
	}
	if resp.TotalAvailable != 15 {
		t.Errorf("TotalAvailable = %d, want 15", resp.TotalAvailable)
	}
}
