// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/rendezvous/internal/auth"
	"github.com/tomtom215/rendezvous/internal/config"
	"github.com/tomtom215/rendezvous/internal/database"
	"github.com/tomtom215/rendezvous/internal/eventprocessor"
	"github.com/tomtom215/rendezvous/internal/geo"
	"github.com/tomtom215/rendezvous/internal/location"
	"github.com/tomtom215/rendezvous/internal/middleware"
	"github.com/tomtom215/rendezvous/internal/models"
	"github.com/tomtom215/rendezvous/internal/profile"
	"github.com/tomtom215/rendezvous/internal/recommend"
	ws "github.com/tomtom215/rendezvous/internal/websocket"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

// fakeEngine records the last request and returns a canned response.
type fakeEngine struct {
	mu    sync.Mutex
	last  *recommend.Request
	calls int
	resp  *recommend.Response
	err   error
	cfg   *recommend.Config
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		cfg: recommend.DefaultConfig(),
		resp: &recommend.Response{
			Events:        []recommend.RankedEvent{},
			FallbackLevel: recommend.LevelExact,
		},
	}
}

func (e *fakeEngine) Recommend(_ context.Context, req recommend.Request) (*recommend.Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.last = &req
	if e.err != nil {
		return nil, e.err
	}
	return e.resp, nil
}

func (e *fakeEngine) Boundary(center geo.Coordinate, radiusKm float64) (geo.Polygon, float64) {
	radiusKm = e.cfg.BoundaryRadius(radiusKm)
	return geo.BoundaryPolygon(center, radiusKm, 8), radiusKm
}

func (e *fakeEngine) Stats() recommend.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return recommend.Stats{Requests: int64(e.calls), LevelsSelected: map[string]int64{}}
}

func (e *fakeEngine) lastRequest(t *testing.T) recommend.Request {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		t.Fatal("engine was not called")
	}
	return *e.last
}

// fakeEvents is an in-memory EventStore.
type fakeEvents struct {
	mu      sync.Mutex
	events  map[string]models.CandidateEvent
	pingErr error
}

func newFakeEvents(evs ...models.CandidateEvent) *fakeEvents {
	f := &fakeEvents{events: make(map[string]models.CandidateEvent)}
	for _, ev := range evs {
		f.events[ev.ID] = ev
	}
	return f
}

func (f *fakeEvents) GetEvent(_ context.Context, id string) (*models.CandidateEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return nil, database.ErrEventNotFound
	}
	return &ev, nil
}

func (f *fakeEvents) UpsertEvent(_ context.Context, ev *models.CandidateEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[ev.ID] = *ev
	return nil
}

func (f *fakeEvents) DeleteEvent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return database.ErrEventNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEvents) CountEvents(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events), nil
}

func (f *fakeEvents) Ping(context.Context) error { return f.pingErr }

// fakeProfiles is an in-memory ProfileStore.
type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[string]*models.UserProfile)}
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) PutProfile(_ context.Context, userID string, in *models.ProfileInput) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		p = &models.UserProfile{UserID: userID}
		f.profiles[userID] = p
	}
	p.DisplayName = in.DisplayName
	p.Gender = in.Gender
	p.InterestTags = append([]string{}, in.InterestTags...)
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) AddParticipation(_ context.Context, userID string, part models.Participation) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		p = &models.UserProfile{UserID: userID, InterestTags: []string{}}
		f.profiles[userID] = p
	}
	p.Participations = append(p.Participations, part)
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) Ping(context.Context) error { return nil }

// recordingNotifier captures every change notification.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

type notification struct {
	kind     eventprocessor.ChangeKind
	entityID string
}

func (n *recordingNotifier) Notify(_ context.Context, kind eventprocessor.ChangeKind, entityID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{kind: kind, entityID: entityID})
}

func (n *recordingNotifier) recorded() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.calls...)
}

type fakeBreaker struct{ state gobreaker.State }

func (b fakeBreaker) State() gobreaker.State { return b.state }

// testEnv is a fully wired router over fakes.
type testEnv struct {
	engine   *fakeEngine
	events   *fakeEvents
	profiles *fakeProfiles
	notifier *recordingNotifier
	hub      *ws.Hub
	cfg      *config.Config
	deps     HandlerDeps
	handler  http.Handler
}

type envOption func(*testEnv)

func withConfig(mutate func(*config.Config)) envOption {
	return func(e *testEnv) { mutate(e.cfg) }
}

func withDeps(mutate func(*HandlerDeps)) envOption {
	return func(e *testEnv) { mutate(&e.deps) }
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			AuthMode:          "none",
			JWTSecret:         testJWTSecret,
			RateLimitReqs:     1000,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: true,
		},
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	env := &testEnv{
		engine:   newFakeEngine(),
		events:   newFakeEvents(),
		profiles: newFakeProfiles(),
		notifier: &recordingNotifier{},
		hub:      ws.NewHub(zerolog.Nop()),
		cfg:      testConfig(),
	}
	env.deps = HandlerDeps{
		Engine:   env.engine,
		Events:   env.events,
		Profiles: env.profiles,
		Resolver: location.NewResolver(time.Second, nil, zerolog.Nop()),
		Notifier: env.notifier,
		Hub:      env.hub,
		PerfMon:  middleware.NewPerformanceMonitor(100),
		Config:   env.cfg,
	}
	for _, opt := range opts {
		opt(env)
	}

	authMW, err := auth.NewMiddleware(&env.cfg.Security, zerolog.Nop())
	if err != nil {
		t.Fatalf("auth.NewMiddleware() error = %v", err)
	}
	h := NewHandler(env.deps, zerolog.Nop())
	env.handler = NewRouter(h, authMW, zerolog.Nop()).Setup()
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// envelope is models.APIResponse with the payload left raw.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if env.Status != "success" {
		t.Fatalf("status = %q, error = %+v", env.Status, env.Error)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantCode string) envelope {
	t.Helper()
	if rec.Code != wantStatus {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, wantStatus, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Status != "error" || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != wantCode {
		t.Errorf("error code = %q, want %q", env.Error.Code, wantCode)
	}
	return env
}

var errBoom = errors.New("boom")
