// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package database

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/rendezvous/internal/config"
	"github.com/tomtom215/rendezvous/internal/models"
)

type flakyQuerier struct {
	calls atomic.Int32
	fail  atomic.Bool
	err   error
}

func (f *flakyQuerier) QueryEvents(ctx context.Context, _ []models.EventStatus, _ []models.Audience, _ int) ([]models.CandidateEvent, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return nil, f.err
	}
	return []models.CandidateEvent{{ID: "e1"}}, nil
}

func TestBreakerRepository_PassThrough(t *testing.T) {
	t.Parallel()

	q := &flakyQuerier{}
	br := NewBreakerRepository(q, nil, zerolog.Nop())

	got, err := br.QueryEvents(context.Background(), models.RecommendableStatuses, models.AllAudiences, 10)
	if err != nil {
		t.Fatalf("QueryEvents() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "e1" {
		t.Errorf("QueryEvents() = %v, want [e1]", got)
	}
	if br.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", br.State())
	}
}

func TestBreakerRepository_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	q := &flakyQuerier{err: errors.New("disk on fire")}
	q.fail.Store(true)
	br := NewBreakerRepository(q, &config.BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          50 * time.Millisecond,
		FailureThreshold: 3,
	}, zerolog.Nop())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := br.QueryEvents(ctx, nil, nil, 0); !errors.Is(err, q.err) {
			t.Fatalf("call %d error = %v, want underlying error", i, err)
		}
	}
	if br.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", br.State())
	}

	// Open circuit rejects without calling through.
	if _, err := br.QueryEvents(ctx, nil, nil, 0); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want ErrOpenState", err)
	}
	if got := q.calls.Load(); got != 3 {
		t.Errorf("underlying calls = %d, want 3", got)
	}

	// After the timeout a successful probe closes it again.
	q.fail.Store(false)
	time.Sleep(80 * time.Millisecond)
	if _, err := br.QueryEvents(ctx, nil, nil, 0); err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if br.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed after successful probe", br.State())
	}
}

func TestBreakerRepository_CanceledDoesNotTrip(t *testing.T) {
	t.Parallel()

	q := &flakyQuerier{err: context.Canceled}
	q.fail.Store(true)
	br := NewBreakerRepository(q, &config.BreakerConfig{FailureThreshold: 1}, zerolog.Nop())

	for i := 0; i < 5; i++ {
		_, _ = br.QueryEvents(context.Background(), nil, nil, 0)
	}
	if br.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", br.State())
	}
	if got := q.calls.Load(); got != 5 {
		t.Errorf("underlying calls = %d, want 5", got)
	}
}
