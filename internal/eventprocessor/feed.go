// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/metrics"
)

// defaultFeedBuffer is the Signal channel capacity.
const defaultFeedBuffer = 64

// ChangeFeed turns the notification topic into a channel of Signals.
type ChangeFeed struct {
	subscriber message.Subscriber
	buffer     int
	logger     zerolog.Logger
}

// NewChangeFeed creates a feed over sub.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewChangeFeed(sub message.Subscriber, logger zerolog.Logger) (*ChangeFeed, error) {
	if sub == nil {
		return nil, ErrNilSubscriber
	}
	return &ChangeFeed{
		subscriber: sub,
		buffer:     defaultFeedBuffer,
		logger:     logger.With().Str("component", "change-feed").Logger(),
	}, nil
}

// Subscribe starts consuming TopicEventsChanged. The returned channel is
// closed when ctx is done or the subscriber shuts down.
//
// Messages are acked once their Signal has been handed over. Malformed
// payloads are acked and dropped so they cannot block the stream.
func (f *ChangeFeed) Subscribe(ctx context.Context) (<-chan Signal, error) {
	msgs, err := f.subscriber.Subscribe(ctx, TopicEventsChanged)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicEventsChanged, err)
	}

	out := make(chan Signal, f.buffer)
	go f.pump(ctx, msgs, out)
	return out, nil
}

func (f *ChangeFeed) pump(ctx context.Context, msgs <-chan *message.Message, out chan<- Signal) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			n, err := DecodeMessage(msg)
			if err != nil {
				f.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed change notification")
				msg.Ack()
				continue
			}
			select {
			case out <- n.Signal():
				metrics.RecordChangeConsumed()
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}
}
