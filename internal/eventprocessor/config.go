// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/tomtom215/rendezvous/internal/config"
)

// ServerConfig configures the embedded NATS server.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// StreamConfig configures the JetStream stream backing TopicEventsChanged.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxMsgs         int64
	MaxBytes        int64
	DuplicateWindow time.Duration
	Replicas        int
}

// PublisherConfig configures the JetStream publisher.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool
}

// SubscriberConfig configures the durable JetStream consumer.
//
// Every replica must see every notification, so there is no queue group and
// each replica needs its own DurableName.
type SubscriberConfig struct {
	URL              string
	StreamName       string
	DurableName      string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	CloseTimeout     time.Duration
	MaxDeliver       int
	MaxAckPending    int
	MaxReconnects    int
	ReconnectWait    time.Duration
}

// ServerConfigFrom derives embedded server settings.
func ServerConfigFrom(cfg *config.NATSConfig) ServerConfig {
	return ServerConfig{
		Host:              cfg.Host,
		Port:              cfg.Port,
		StoreDir:          cfg.StoreDir,
		JetStreamMaxMem:   64 << 20,
		JetStreamMaxStore: 256 << 20,
	}
}

// StreamConfigFrom derives the stream settings. Notifications are only
// useful while cached entries can still be live, so retention is short.
func StreamConfigFrom(cfg *config.NATSConfig) StreamConfig {
	return StreamConfig{
		Name:            cfg.StreamName,
		Subjects:        []string{TopicEventsChanged},
		MaxAge:          time.Hour,
		MaxMsgs:         100_000,
		MaxBytes:        64 << 20,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// PublisherConfigFrom derives publisher settings for url.
func PublisherConfigFrom(cfg *config.NATSConfig, url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    cfg.MaxReconnects,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 << 20,
		EnableTrackMsgID: true,
	}
}

// SubscriberConfigFrom derives subscriber settings for url.
func SubscriberConfigFrom(cfg *config.NATSConfig, url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		StreamName:       cfg.StreamName,
		DurableName:      cfg.DurableName,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		MaxDeliver:       5,
		MaxAckPending:    256,
		MaxReconnects:    cfg.MaxReconnects,
		ReconnectWait:    2 * time.Second,
	}
}

// Validate checks the stream settings.
func (c *StreamConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("stream name is required")
	}
	if len(c.Subjects) == 0 {
		return fmt.Errorf("stream %s needs at least one subject", c.Name)
	}
	if c.Replicas < 1 {
		return fmt.Errorf("stream %s replicas must be >= 1", c.Name)
	}
	return nil
}
