// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package eventprocessor

import "errors"

// ErrNATSNotEnabled is returned when NATS features are used without the nats build tag.
var ErrNATSNotEnabled = errors.New("NATS change notifications not enabled (build with -tags nats)")

// ErrNilPublisher is returned when a ChangePublisher is built without a transport.
var ErrNilPublisher = errors.New("publisher cannot be nil")

// ErrNilSubscriber is returned when a ChangeFeed is built without a transport.
var ErrNilSubscriber = errors.New("subscriber cannot be nil")

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// ErrInvalidNotification is returned for notifications that fail validation.
var ErrInvalidNotification = errors.New("invalid change notification")
