// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/rendezvous/internal/metrics"
)

// Notifier is the write-path view of a ChangePublisher.
type Notifier interface {
	Notify(ctx context.Context, kind ChangeKind, entityID string)
}

// PublisherStats is a snapshot of publish counters.
type PublisherStats struct {
	Published int64
	Failed    int64
}

// ChangePublisher publishes change notifications on TopicEventsChanged.
type ChangePublisher struct {
	publisher message.Publisher
	cb        *gobreaker.CircuitBreaker[struct{}]
	source    string
	logger    zerolog.Logger

	mu     sync.RWMutex
	closed bool

	published atomic.Int64
	failed    atomic.Int64
}

var _ Notifier = (*ChangePublisher)(nil)

// NewChangePublisher wraps pub. cb may be nil to publish without a breaker.
// source is stamped on every notification, typically the instance id.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewChangePublisher(pub message.Publisher, cb *gobreaker.CircuitBreaker[struct{}], source string, logger zerolog.Logger) (*ChangePublisher, error) {
	if pub == nil {
		return nil, ErrNilPublisher
	}
	return &ChangePublisher{
		publisher: pub,
		cb:        cb,
		source:    source,
		logger:    logger.With().Str("component", "change-publisher").Logger(),
	}, nil
}

// Publish validates and sends n.
func (p *ChangePublisher) Publish(ctx context.Context, n *ChangeNotification) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	if n.Source == "" {
		n.Source = p.source
	}
	msg, err := EncodeMessage(n)
	if err != nil {
		metrics.RecordChangePublished(string(n.Kind), err)
		return err
	}
	msg.SetContext(ctx)

	if p.cb != nil {
		_, err = p.cb.Execute(func() (struct{}, error) {
			return struct{}{}, p.publisher.Publish(TopicEventsChanged, msg)
		})
	} else {
		err = p.publisher.Publish(TopicEventsChanged, msg)
	}

	metrics.RecordChangePublished(string(n.Kind), err)
	if err != nil {
		p.failed.Add(1)
		return fmt.Errorf("publish %s notification: %w", n.Kind, err)
	}
	p.published.Add(1)
	return nil
}

// Notify publishes a notification and logs failures instead of returning
// them. Cached candidates still expire on their TTL when a notification is
// lost.
func (p *ChangePublisher) Notify(ctx context.Context, kind ChangeKind, entityID string) {
	if err := p.Publish(ctx, NewChangeNotification(kind, entityID)); err != nil {
		p.logger.Warn().
			Err(err).
			Str("kind", string(kind)).
			Str("entity_id", entityID).
			Msg("Change notification not delivered")
	}
}

// Stats returns publish counters.
func (p *ChangePublisher) Stats() PublisherStats {
	return PublisherStats{Published: p.published.Load(), Failed: p.failed.Load()}
}

// Close stops further publishing. The transport is owned by its PubSub.
func (p *ChangePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
