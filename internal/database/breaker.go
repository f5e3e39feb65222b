// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package database

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/rendezvous/internal/config"
	"github.com/tomtom215/rendezvous/internal/metrics"
	"github.com/tomtom215/rendezvous/internal/models"
)

// EventQuerier is the read path the breaker protects.
type EventQuerier interface {
	QueryEvents(ctx context.Context, statuses []models.EventStatus, audiences []models.Audience, limit int) ([]models.CandidateEvent, error)
}

// BreakerRepository guards an EventQuerier with a circuit breaker. While the
// circuit is open queries fail immediately with gobreaker.ErrOpenState
// instead of waiting out the query timeout.
type BreakerRepository struct {
	next   EventQuerier
	cb     *gobreaker.CircuitBreaker[[]models.CandidateEvent]
	name   string
	logger zerolog.Logger
}

// NewBreakerRepository wraps next. A nil cfg uses gobreaker defaults with a
// threshold of five consecutive failures.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBreakerRepository(next EventQuerier, cfg *config.BreakerConfig, logger zerolog.Logger) *BreakerRepository {
	const name = "event-repository"
	br := &BreakerRepository{
		next:   next,
		name:   name,
		logger: logger.With().Str("component", "repository-breaker").Logger(),
	}

	threshold := uint32(5)
	settings := gobreaker.Settings{Name: name}
	if cfg != nil {
		settings.MaxRequests = cfg.MaxRequests
		settings.Interval = cfg.Interval
		settings.Timeout = cfg.Timeout
		if cfg.FailureThreshold > 0 {
			threshold = cfg.FailureThreshold
		}
	}
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= threshold
	}
	// A canceled caller says nothing about the store's health.
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		br.logger.Warn().
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("Circuit breaker state changed")
		metrics.RecordBreakerTransition(name, from.String(), to.String())
	}

	br.cb = gobreaker.NewCircuitBreaker[[]models.CandidateEvent](settings)
	return br
}

// QueryEvents runs the wrapped query under the breaker.
func (b *BreakerRepository) QueryEvents(ctx context.Context, statuses []models.EventStatus, audiences []models.Audience, limit int) ([]models.CandidateEvent, error) {
	events, err := b.cb.Execute(func() ([]models.CandidateEvent, error) {
		return b.next.QueryEvents(ctx, statuses, audiences, limit)
	})
	switch {
	case err == nil:
		metrics.RecordBreakerRequest(b.name, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBreakerRequest(b.name, "rejected")
	default:
		metrics.RecordBreakerRequest(b.name, "failure")
	}
	return events, err
}

// State returns the current breaker state.
func (b *BreakerRepository) State() gobreaker.State {
	return b.cb.State()
}
