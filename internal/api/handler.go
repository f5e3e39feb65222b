// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/rendezvous/internal/config"
	"github.com/tomtom215/rendezvous/internal/eventprocessor"
	"github.com/tomtom215/rendezvous/internal/geo"
	"github.com/tomtom215/rendezvous/internal/location"
	"github.com/tomtom215/rendezvous/internal/middleware"
	"github.com/tomtom215/rendezvous/internal/models"
	"github.com/tomtom215/rendezvous/internal/recommend"
	ws "github.com/tomtom215/rendezvous/internal/websocket"
)

// Recommender is the ranking engine as seen by the handlers.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	// Boundary also returns the radius actually used.
	Boundary(center geo.Coordinate, radiusKm float64) (geo.Polygon, float64)
	Stats() recommend.Stats
}

// EventStore is the event write and lookup side of the database.
type EventStore interface {
	GetEvent(ctx context.Context, id string) (*models.CandidateEvent, error)
	UpsertEvent(ctx context.Context, ev *models.CandidateEvent) error
	DeleteEvent(ctx context.Context, id string) error
	CountEvents(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// ProfileStore is the user profile store.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	PutProfile(ctx context.Context, userID string, in *models.ProfileInput) (*models.UserProfile, error)
	AddParticipation(ctx context.Context, userID string, p models.Participation) (*models.UserProfile, error)
	Ping(ctx context.Context) error
}

// BreakerStater reports the event repository breaker state.
type BreakerStater interface {
	State() gobreaker.State
}

// Handler holds the dependencies of every endpoint.
type Handler struct {
	engine   Recommender
	events   EventStore
	profiles ProfileStore
	resolver *location.Resolver
	notifier eventprocessor.Notifier
	hub      *ws.Hub
	breaker  BreakerStater
	perfMon  *middleware.PerformanceMonitor
	config   *config.Config
	logger   zerolog.Logger

	startTime time.Time
}

// HandlerDeps groups the constructor arguments of NewHandler. Notifier,
// Hub, Breaker and PerfMon are optional.
type HandlerDeps struct {
	Engine   Recommender
	Events   EventStore
	Profiles ProfileStore
	Resolver *location.Resolver
	Notifier eventprocessor.Notifier
	Hub      *ws.Hub
	Breaker  BreakerStater
	PerfMon  *middleware.PerformanceMonitor
	Config   *config.Config
}

// NewHandler creates the API handler.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(deps HandlerDeps, logger zerolog.Logger) *Handler {
	resolver := deps.Resolver
	if resolver == nil {
		resolver = location.NewResolver(0, nil, logger)
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Handler{
		engine:    deps.Engine,
		events:    deps.Events,
		profiles:  deps.Profiles,
		resolver:  resolver,
		notifier:  notifier,
		hub:       deps.Hub,
		breaker:   deps.Breaker,
		perfMon:   deps.PerfMon,
		config:    deps.Config,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, eventprocessor.ChangeKind, string) {}
