// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/eventprocessor"
	"github.com/tomtom215/rendezvous/internal/models"
	"github.com/tomtom215/rendezvous/internal/recommend"
	"github.com/tomtom215/rendezvous/internal/supervisor/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSupervisorTreeConstruction(t *testing.T) {
	t.Run("creates hierarchical supervisor tree", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  10 * time.Second,
		})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		if tree.Root() == nil {
			t.Error("root supervisor should not be nil")
		}
	})

	t.Run("applies default values for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		if got, want := tree.Config(), DefaultTreeConfig(); got != want {
			t.Errorf("Config() = %+v, want %+v", got, want)
		}
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: 3 * time.Second})
		cfg := tree.Config()
		if cfg.ShutdownTimeout != 3*time.Second {
			t.Errorf("ShutdownTimeout = %v, want 3s", cfg.ShutdownTimeout)
		}
		if cfg.FailureThreshold != 5.0 {
			t.Errorf("FailureThreshold = %v, want default 5", cfg.FailureThreshold)
		}
	})
}

func TestSupervisorTreeLifecycle(t *testing.T) {
	t.Run("services in every layer start and stop", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
			FailureBackoff:  50 * time.Millisecond,
			ShutdownTimeout: 500 * time.Millisecond,
		})

		dataSvc := newFakeService("cache-maintenance", 0)
		wsSvc := newFakeService("websocket-hub", 0)
		httpSvc := newFakeService("http-server", 0)
		tree.AddDataService(dataSvc)
		tree.AddMessagingService(wsSvc)
		tree.AddAPIService(httpSvc)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := tree.ServeBackground(ctx)

		waitUntil(t, "all services to start", func() bool {
			return dataSvc.runs.Load() >= 1 && wsSvc.runs.Load() >= 1 && httpSvc.runs.Load() >= 1
		})
		cancel()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("tree did not shut down")
		}

		for _, svc := range []*fakeService{dataSvc, wsSvc, httpSvc} {
			if svc.exits.Load() < 1 {
				t.Errorf("%s did not stop", svc)
			}
		}
		if n := tree.LogUnstopped(); n != 0 {
			t.Errorf("LogUnstopped() = %d, want 0", n)
		}
	})

	t.Run("empty tree stops on deadline", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: 500 * time.Millisecond})

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestSupervisorTreeFailureIsolation(t *testing.T) {
	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  500 * time.Millisecond,
	})

	failing := newFakeService("failing-feed", 3)
	stableAPI := newFakeService("stable-api", 0)

	tree.AddDataService(failing)
	tree.AddAPIService(stableAPI)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitUntil(t, "failing service restarts", func() bool { return failing.runs.Load() >= 4 })

	// The API layer never saw the data layer's failures.
	if got := stableAPI.runs.Load(); got != 1 {
		t.Errorf("stable API service started %d times, want 1", got)
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Error("tree did not shut down")
	}
}

// countingFetcher counts repository round trips behind the candidate cache.
type countingFetcher struct {
	calls atomic.Int32
}

func (f *countingFetcher) fetch(context.Context) ([]models.CandidateEvent, error) {
	f.calls.Add(1)
	return []models.CandidateEvent{{ID: "ev-1"}}, nil
}

func TestSupervisorTree_ChangeFeedInvalidatesCandidates(t *testing.T) {
	logger := zerolog.Nop()
	ps := eventprocessor.NewInProcessPubSub(logger)
	defer ps.Close()

	feed, err := eventprocessor.NewChangeFeed(ps.Subscriber, logger)
	if err != nil {
		t.Fatalf("NewChangeFeed() error = %v", err)
	}
	pub, err := eventprocessor.NewChangePublisher(ps.Publisher, nil, "test", logger)
	if err != nil {
		t.Fatalf("NewChangePublisher() error = %v", err)
	}

	candidates := recommend.NewCandidateCache(0)
	defer candidates.Close()

	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})
	tree.AddDataService(services.NewCacheMaintenanceService(feed, candidates, nil, services.CacheMaintenanceConfig{}, logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	f := &countingFetcher{}
	key := recommend.CandidateKeyPrefix + "test"
	get := func() {
		t.Helper()
		if _, err := candidates.Get(ctx, key, f.fetch, time.Hour); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
	}

	get()
	get()
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("fetches before invalidation = %d, want 1", got)
	}

	// The gochannel pub/sub drops messages published before the
	// subscription exists, so keep notifying until the cache empties.
	waitUntil(t, "candidate invalidation", func() bool {
		pub.Notify(ctx, eventprocessor.KindEventUpserted, "ev-1")
		return candidates.Len() == 0
	})

	get()
	if got := f.calls.Load(); got != 2 {
		t.Errorf("fetches after invalidation = %d, want 2", got)
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Error("tree did not shut down")
	}
}
