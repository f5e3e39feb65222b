// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package eventprocessor

import (
	"testing"

	"github.com/tomtom215/rendezvous/internal/config"
)

func testNATSConfig() *config.NATSConfig {
	return &config.NATSConfig{
		Enabled:        true,
		EmbeddedServer: true,
		Host:           "127.0.0.1",
		Port:           4222,
		StoreDir:       "/tmp/nats",
		StreamName:     "EVENTS",
		DurableName:    "replica-a",
		MaxReconnects:  -1,
	}
}

func TestConfigFrom(t *testing.T) {
	t.Parallel()

	cfg := testNATSConfig()

	stream := StreamConfigFrom(cfg)
	if stream.Name != "EVENTS" || len(stream.Subjects) != 1 || stream.Subjects[0] != TopicEventsChanged {
		t.Errorf("StreamConfigFrom() = %+v", stream)
	}
	if err := stream.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	sub := SubscriberConfigFrom(cfg, "nats://x:4222")
	if sub.URL != "nats://x:4222" || sub.DurableName != "replica-a" || sub.StreamName != "EVENTS" {
		t.Errorf("SubscriberConfigFrom() = %+v", sub)
	}

	pub := PublisherConfigFrom(cfg, "nats://x:4222")
	if !pub.EnableTrackMsgID || pub.MaxReconnects != -1 {
		t.Errorf("PublisherConfigFrom() = %+v", pub)
	}

	srv := ServerConfigFrom(cfg)
	if srv.Host != "127.0.0.1" || srv.Port != 4222 || srv.StoreDir != "/tmp/nats" {
		t.Errorf("ServerConfigFrom() = %+v", srv)
	}
}

func TestStreamConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     StreamConfig
		wantErr bool
	}{
		{"ok", StreamConfig{Name: "S", Subjects: []string{"a"}, Replicas: 1}, false},
		{"no name", StreamConfig{Subjects: []string{"a"}, Replicas: 1}, true},
		{"no subjects", StreamConfig{Name: "S", Replicas: 1}, true},
		{"no replicas", StreamConfig{Name: "S", Subjects: []string{"a"}}, true},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
