// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	ws "github.com/tomtom215/rendezvous/internal/websocket"
)

var _ suture.Service = (*WebSocketHubService)(nil)

// fakeHub runs until canceled, or returns err at once.
type fakeHub struct {
	err     error
	clients int
	runs    atomic.Int32
}

func (f *fakeHub) RunWithContext(ctx context.Context) error {
	f.runs.Add(1)
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeHub) ClientCount() int { return f.clients }

func TestWebSocketHubService_Serve(t *testing.T) {
	hubErr := errors.New("fan-out loop panicked")

	tests := []struct {
		name     string
		hub      *fakeHub
		ctx      func() (context.Context, context.CancelFunc)
		wantErr  error
		wantText string
	}{
		{
			name:    "cancel",
			hub:     &fakeHub{},
			ctx:     func() (context.Context, context.CancelFunc) { return cancelSoon(20 * time.Millisecond) },
			wantErr: context.Canceled,
		},
		{
			name: "deadline",
			hub:  &fakeHub{},
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 30*time.Millisecond)
			},
			wantErr: context.DeadlineExceeded,
		},
		{
			name:     "hub failure names connected clients",
			hub:      &fakeHub{err: hubErr, clients: 2},
			ctx:      func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			wantErr:  hubErr,
			wantText: "2 clients",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewWebSocketHubService(tt.hub)
			if svc.String() != "websocket-hub" {
				t.Errorf("String() = %q, want websocket-hub", svc.String())
			}

			ctx, cancel := tt.ctx()
			defer cancel()
			err := svc.Serve(ctx)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Serve() = %v, want %v", err, tt.wantErr)
			}
			if tt.wantText != "" && !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("error %q should contain %q", err, tt.wantText)
			}
			if got := tt.hub.runs.Load(); got != 1 {
				t.Errorf("runs = %d, want 1", got)
			}
		})
	}
}

func cancelSoon(d time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(d, cancel)
	return ctx, cancel
}

func TestWebSocketHubService_RealHub(t *testing.T) {
	hub := ws.NewHub(zerolog.Nop())
	svc := NewWebSocketHubService(hub)

	sup := suture.New("messaging-test", suture.Spec{
		FailureBackoff: 10 * time.Millisecond,
		Timeout:        time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	if !hub.BroadcastStale(ws.StaleNotice{Reason: "event_upserted"}) {
		t.Error("BroadcastStale() = false on an empty queue")
	}
	if n := hub.ClientCount(); n != 0 {
		t.Errorf("ClientCount() = %d, want 0", n)
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("supervisor = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
}
