// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/rendezvous/internal/eventprocessor"
	"github.com/tomtom215/rendezvous/internal/metrics"
	"github.com/tomtom215/rendezvous/internal/recommend"
	ws "github.com/tomtom215/rendezvous/internal/websocket"
)

// ErrChangeFeedClosed is returned when the signal channel closes while the
// service is still supposed to run. The supervisor restarts the service,
// which resubscribes.
var ErrChangeFeedClosed = errors.New("change feed closed")

// SignalSource delivers change signals. eventprocessor.ChangeFeed
// implements it.
type SignalSource interface {
	Subscribe(ctx context.Context) (<-chan eventprocessor.Signal, error)
}

// CandidateInvalidator drops cached candidate sets. cache.ResultCache
// implements it.
type CandidateInvalidator interface {
	InvalidatePrefix(prefix string) int
}

// StaleBroadcaster tells connected clients that their recommendations are
// out of date. websocket.Hub implements it.
type StaleBroadcaster interface {
	BroadcastStale(notice ws.StaleNotice) bool
}

// CacheMaintenanceConfig holds configuration for the cache maintenance service.
type CacheMaintenanceConfig struct {
	// BroadcastInterval is the minimum spacing between untargeted stale
	// notices. Default: 1s
	BroadcastInterval time.Duration

	// FlushInterval is how often folded changes are checked for a pending
	// notice. Default: BroadcastInterval
	FlushInterval time.Duration
}

// CacheMaintenanceService applies change signals to the candidate cache and
// notifies websocket clients.
//
// Every signal that affects candidates invalidates the "events:" keys at
// once. Profile updates leave the cache alone and notify only the owning
// user. Candidate notices are rate limited: changes arriving faster than
// BroadcastInterval are folded into one notice carrying a Coalesced count.
type CacheMaintenanceService struct {
	source      SignalSource
	cache       CandidateInvalidator
	broadcaster StaleBroadcaster
	config      CacheMaintenanceConfig
	limiter     *rate.Limiter
	logger      zerolog.Logger
	now         func() time.Time
	name        string

	// pending and last are only touched by the Serve goroutine.
	pending int
	last    eventprocessor.Signal
}

// NewCacheMaintenanceService creates the service. broadcaster may be nil,
// in which case only the cache is maintained.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCacheMaintenanceService(source SignalSource, cache CandidateInvalidator, broadcaster StaleBroadcaster, cfg CacheMaintenanceConfig, logger zerolog.Logger) *CacheMaintenanceService {
	if cfg.BroadcastInterval <= 0 {
		cfg.BroadcastInterval = time.Second
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = cfg.BroadcastInterval
	}
	return &CacheMaintenanceService{
		source:      source,
		cache:       cache,
		broadcaster: broadcaster,
		config:      cfg,
		limiter:     rate.NewLimiter(rate.Every(cfg.BroadcastInterval), 1),
		logger:      logger.With().Str("service", "cache-maintenance").Logger(),
		now:         time.Now,
		name:        "cache-maintenance",
	}
}

// Serve implements the suture.Service interface.
func (s *CacheMaintenanceService) Serve(ctx context.Context) error {
	signals, err := s.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("cache maintenance subscribe: %w", err)
	}

	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	s.logger.Info().
		Dur("broadcast_interval", s.config.BroadcastInterval).
		Msg("cache maintenance service running")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Int("pending", s.pending).Msg("cache maintenance service shutting down")
			return ctx.Err()

		case sig, ok := <-signals:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrChangeFeedClosed
			}
			s.handle(sig)

		case <-ticker.C:
			if s.pending > 0 && s.limiter.Allow() {
				s.flush()
			}
		}
	}
}

func (s *CacheMaintenanceService) handle(sig eventprocessor.Signal) {
	if sig.Kind.AffectsCandidates() {
		n := s.cache.InvalidatePrefix(recommend.CandidateKeyPrefix)
		s.logger.Debug().
			Str("kind", string(sig.Kind)).
			Str("entity_id", sig.EntityID).
			Int("invalidated", n).
			Msg("candidate cache invalidated")
	}

	if s.broadcaster == nil {
		return
	}

	if sig.Kind == eventprocessor.KindProfileUpdated {
		if sig.EntityID == "" {
			return
		}
		s.broadcaster.BroadcastStale(ws.StaleNotice{
			Reason:    string(sig.Kind),
			EntityID:  sig.EntityID,
			UserID:    sig.EntityID,
			Timestamp: s.now(),
		})
		return
	}

	s.pending++
	s.last = sig
	if s.limiter.Allow() {
		s.flush()
		return
	}
	metrics.RecordChangeCoalesced()
}

// flush sends one notice for everything pending. The reason is the kind of
// the most recent change; the entity is named only when a single change is
// reported.
func (s *CacheMaintenanceService) flush() {
	notice := ws.StaleNotice{
		Reason:    string(s.last.Kind),
		Coalesced: s.pending - 1,
		Timestamp: s.now(),
	}
	if s.pending == 1 {
		notice.EntityID = s.last.EntityID
	}
	if !s.broadcaster.BroadcastStale(notice) {
		s.logger.Warn().Int("coalesced", notice.Coalesced).Msg("stale notice dropped, hub queue full")
	}
	s.pending = 0
	s.last = eventprocessor.Signal{}
}

// String returns the service name for logging.
func (s *CacheMaintenanceService) String() string {
	return s.name
}
