// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package eventprocessor

import (
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/logging"
)

// Transport names reported by PubSub.Transport.
const (
	TransportInProcess = "gochannel"
	TransportNATS      = "nats"
)

// inProcessBuffer is the per-subscriber output buffer of the gochannel
// transport.
const inProcessBuffer = 256

// PubSub pairs a publisher and subscriber on one transport.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Transport  string

	closeOnce sync.Once
	closeErr  error
	closers   []func() error
}

// NewInProcessPubSub creates a gochannel pub/sub. Messages published while
// nobody is subscribed are dropped.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewInProcessPubSub(logger zerolog.Logger) *PubSub {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: inProcessBuffer,
	}, logging.NewWatermillLogger(logger))

	return &PubSub{
		Publisher:  ch,
		Subscriber: ch,
		Transport:  TransportInProcess,
		closers:    []func() error{ch.Close},
	}
}

// Close closes every underlying component once.
func (p *PubSub) Close() error {
	p.closeOnce.Do(func() {
		var errs []error
		for _, c := range p.closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}
