// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

// Package eventprocessor carries change notifications between the write
// paths (event upserts and deletes, profile updates) and the cache
// maintenance service.
//
// Notifications travel as Watermill messages on TopicEventsChanged. The
// default transport is the in-process gochannel pub/sub. Binaries built with
// -tags nats use NATS JetStream through watermill-nats instead, optionally
// backed by an embedded nats-server, so that several replicas invalidate
// their caches together.
//
// # Components
//
//   - ChangeNotification: the JSON payload, validated before publish
//   - ChangePublisher: publishes notifications behind a gobreaker circuit
//   - ChangeFeed: subscribes and exposes decoded Signals as a channel
//   - PubSub: a publisher/subscriber pair for one transport
//   - EmbeddedServer, StreamInitializer (nats tag only)
//
// Publishing is best-effort. A failed publish is logged and counted but
// never fails the write that triggered it; cache entries still expire on
// their TTL.
package eventprocessor
