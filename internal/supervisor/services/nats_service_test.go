// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type mockNATSServer struct {
	running     atomic.Bool
	shutdowns   atomic.Int32
	shutdownErr error
}

func newMockNATSServer() *mockNATSServer {
	m := &mockNATSServer{}
	m.running.Store(true)
	return m
}

func (m *mockNATSServer) Shutdown(ctx context.Context) error {
	m.shutdowns.Add(1)
	m.running.Store(false)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("shutdown without deadline")
	}
	return m.shutdownErr
}

func (m *mockNATSServer) IsRunning() bool {
	return m.running.Load()
}

func TestNATSServerService(t *testing.T) {
	t.Run("implements suture.Service interface", func(t *testing.T) {
		var _ suture.Service = (*NATSServerService)(nil)
	})

	t.Run("shuts the server down on context cancellation", func(t *testing.T) {
		mock := newMockNATSServer()
		svc := NewNATSServerService(mock, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		time.Sleep(20 * time.Millisecond)
		if mock.shutdowns.Load() != 0 {
			t.Fatal("server shut down before cancellation")
		}
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("service did not stop")
		}
		if mock.IsRunning() || mock.shutdowns.Load() != 1 {
			t.Errorf("running=%v shutdowns=%d, want stopped once", mock.IsRunning(), mock.shutdowns.Load())
		}
	})

	t.Run("stopped server is not restarted", func(t *testing.T) {
		mock := newMockNATSServer()
		mock.running.Store(false)
		svc := NewNATSServerService(mock, 0)

		err := svc.Serve(context.Background())
		if !errors.Is(err, suture.ErrDoNotRestart) {
			t.Errorf("Serve() = %v, want ErrDoNotRestart", err)
		}
	})

	t.Run("propagates shutdown error", func(t *testing.T) {
		mock := newMockNATSServer()
		mock.shutdownErr = errors.New("drain failed")
		svc := NewNATSServerService(mock, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.Serve(ctx); !errors.Is(err, mock.shutdownErr) {
			t.Errorf("Serve() = %v, want drain failure", err)
		}
	})

	t.Run("String returns service name", func(t *testing.T) {
		svc := NewNATSServerService(newMockNATSServer(), 0)
		if got := svc.String(); got != "nats-server" {
			t.Errorf("String() = %q, want nats-server", got)
		}
		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("default shutdown timeout = %v, want 10s", svc.shutdownTimeout)
		}
	})
}
