// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/api"
	"github.com/tomtom215/rendezvous/internal/auth"
	"github.com/tomtom215/rendezvous/internal/config"
	"github.com/tomtom215/rendezvous/internal/database"
	"github.com/tomtom215/rendezvous/internal/eventprocessor"
	"github.com/tomtom215/rendezvous/internal/geo"
	"github.com/tomtom215/rendezvous/internal/location"
	"github.com/tomtom215/rendezvous/internal/middleware"
	"github.com/tomtom215/rendezvous/internal/profile"
	"github.com/tomtom215/rendezvous/internal/recommend"
	"github.com/tomtom215/rendezvous/internal/supervisor"
	"github.com/tomtom215/rendezvous/internal/supervisor/services"
	ws "github.com/tomtom215/rendezvous/internal/websocket"
)

// demoCenter is where demo events are seeded when no default location is
// configured.
var demoCenter = geo.Coordinate{Lat: 51.5074, Lon: -0.1278}

// perfMonCapacity is the number of recent requests kept for /stats.
const perfMonCapacity = 1000

// application is the fully wired process. Everything that needs closing is
// registered in closers, which run in reverse order.
type application struct {
	cfg    *config.Config
	logger zerolog.Logger

	db         *database.DB
	profiles   *profile.Store
	candidates *recommend.CandidateCache
	repo       *database.BreakerRepository
	engine     *recommend.Engine

	nats      *NATSComponents
	pubsub    *eventprocessor.PubSub
	publisher *eventprocessor.ChangePublisher
	feed      *eventprocessor.ChangeFeed
	hub       *ws.Hub

	server *http.Server

	closers []func() error
}

// newApplication opens the stores and builds every component. On error
// whatever was already opened is closed again.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newApplication(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (app *application, err error) {
	app = &application{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			if closeErr := app.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("Error releasing resources after failed startup")
			}
			app = nil
		}
	}()

	if err = app.openStores(ctx); err != nil {
		return app, err
	}
	if err = app.buildEngine(); err != nil {
		return app, err
	}
	if err = app.buildMessaging(ctx); err != nil {
		return app, err
	}
	if err = app.buildServer(); err != nil {
		return app, err
	}
	return app, nil
}

func (a *application) openStores(ctx context.Context) error {
	db, err := database.New(&a.cfg.Database, a.logger)
	if err != nil {
		return fmt.Errorf("initialize event database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	a.logger.Info().Str("path", a.cfg.Database.Path).Msg("Event database initialized")

	if a.cfg.Database.SeedDemoData {
		center := demoCenter
		if a.cfg.Location.UseDefault {
			center = geo.Coordinate{Lat: a.cfg.Location.DefaultLatitude, Lon: a.cfg.Location.DefaultLongitude}
		}
		n, err := db.SeedDemoData(ctx, center)
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		a.logger.Info().Int("events", n).Stringer("center", center).Msg("Demo data seeded")
	}

	profiles, err := profile.Open(a.cfg.Profiles.Path, a.cfg.Profiles.InMemory, a.logger)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	a.profiles = profiles
	a.closers = append(a.closers, profiles.Close)
	a.logger.Info().
		Str("path", a.cfg.Profiles.Path).
		Bool("in_memory", a.cfg.Profiles.InMemory).
		Msg("Profile store opened")
	return nil
}

func (a *application) buildEngine() error {
	rcfg, err := recommend.FromSettings(&a.cfg.Recommend, a.cfg.Cache.TTL, a.cfg.Database.QueryTimeout)
	if err != nil {
		return fmt.Errorf("recommendation settings: %w", err)
	}
	taxonomy := recommend.TaxonomyFromSettings(a.cfg.Recommend.Taxonomy)

	a.candidates = recommend.NewCandidateCache(a.cfg.Cache.CleanupInterval)
	a.closers = append(a.closers, func() error {
		a.candidates.Close()
		return nil
	})

	a.repo = database.NewBreakerRepository(a.db, &a.cfg.Breaker, a.logger)

	engine, err := recommend.NewEngine(rcfg, a.repo, a.candidates, taxonomy, a.logger,
		recommend.WithProfiles(a.profiles))
	if err != nil {
		return fmt.Errorf("create recommendation engine: %w", err)
	}
	a.engine = engine
	a.logger.Info().
		Int("min_results", rcfg.MinResults).
		Dur("cache_ttl", a.cfg.Cache.TTL).
		Msg("Recommendation engine ready")
	return nil
}

func (a *application) buildMessaging(ctx context.Context) error {
	nc, err := InitNATS(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.nats = nc
	if nc != nil {
		a.closers = append(a.closers, func() error {
			nc.Shutdown()
			return nil
		})
		a.pubsub = nc.PubSub
	} else {
		a.pubsub = eventprocessor.NewInProcessPubSub(a.logger)
	}
	a.closers = append(a.closers, a.pubsub.Close)

	cb := eventprocessor.NewCircuitBreaker(eventprocessor.CircuitBreakerConfigFrom("change-publisher", &a.cfg.Breaker))
	publisher, err := eventprocessor.NewChangePublisher(a.pubsub.Publisher, cb, publisherSource(), a.logger)
	if err != nil {
		return fmt.Errorf("create change publisher: %w", err)
	}
	a.publisher = publisher
	a.closers = append(a.closers, publisher.Close)

	feed, err := eventprocessor.NewChangeFeed(a.pubsub.Subscriber, a.logger)
	if err != nil {
		return fmt.Errorf("create change feed: %w", err)
	}
	a.feed = feed

	a.hub = ws.NewHub(a.logger)
	a.logger.Info().Str("transport", a.pubsub.Transport).Msg("Change notifications wired")
	return nil
}

func (a *application) buildServer() error {
	authMW, err := auth.NewMiddleware(&a.cfg.Security, a.logger)
	if err != nil {
		return fmt.Errorf("initialize authentication: %w", err)
	}

	handler := api.NewHandler(api.HandlerDeps{
		Engine:   a.engine,
		Events:   a.db,
		Profiles: a.profiles,
		Resolver: location.NewResolverFromConfig(&a.cfg.Location, a.logger),
		Notifier: a.publisher,
		Hub:      a.hub,
		Breaker:  a.repo,
		PerfMon:  middleware.NewPerformanceMonitor(perfMonCapacity),
		Config:   a.cfg,
	}, a.logger)

	router := api.NewRouter(handler, authMW, a.logger)
	a.server = &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// supervisorTree places the long-running components in their layers.
func (a *application) supervisorTree(logger *slog.Logger) (*supervisor.SupervisorTree, error) {
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.TreeConfig{
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return nil, err
	}

	tree.AddDataService(services.NewCacheMaintenanceService(a.feed, a.candidates, a.hub,
		services.CacheMaintenanceConfig{BroadcastInterval: a.cfg.Cache.StaleBroadcastInterval}, a.logger))

	tree.AddMessagingService(services.NewWebSocketHubService(a.hub))
	AddNATSToSupervisor(tree, a.nats, a.cfg.Server.ShutdownTimeout)

	tree.AddAPIService(services.NewHTTPServerService(a.server, a.server.Addr, a.cfg.Server.ShutdownTimeout, a.logger))
	return tree, nil
}

// Close releases everything in reverse order of acquisition.
func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// publisherSource names this process in change notifications.
func publisherSource() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "rendezvous"
	}
	return "rendezvous@" + host
}
