// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package eventprocessor

import (
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

func TestNewChangeNotification(t *testing.T) {
	t.Parallel()

	n := NewChangeNotification(KindEventUpserted, "e1")
	if n.ID == "" {
		t.Error("ID should be generated")
	}
	if n.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", n.SchemaVersion, SchemaVersion)
	}
	if time.Since(n.OccurredAt) > time.Minute {
		t.Errorf("OccurredAt = %v, want recent", n.OccurredAt)
	}
	if err := n.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	other := NewChangeNotification(KindEventUpserted, "e1")
	if other.ID == n.ID {
		t.Error("ids should be unique")
	}
}

func TestChangeNotification_Validate(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name    string
		n       ChangeNotification
		wantErr bool
	}{
		{"valid upsert", ChangeNotification{ID: "1", Kind: KindEventUpserted, EntityID: "e1", OccurredAt: now}, false},
		{"bulk reload without entity", ChangeNotification{ID: "1", Kind: KindBulkReload, OccurredAt: now}, false},
		{"missing id", ChangeNotification{Kind: KindEventDeleted, EntityID: "e1", OccurredAt: now}, true},
		{"unknown kind", ChangeNotification{ID: "1", Kind: "exploded", EntityID: "e1", OccurredAt: now}, true},
		{"delete without entity", ChangeNotification{ID: "1", Kind: KindEventDeleted, OccurredAt: now}, true},
		{"missing time", ChangeNotification{ID: "1", Kind: KindProfileUpdated, EntityID: "u1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.n.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidNotification) {
				t.Errorf("error %v should wrap ErrInvalidNotification", err)
			}
		})
	}
}

func TestChangeKind_AffectsCandidates(t *testing.T) {
	t.Parallel()

	for kind, want := range map[ChangeKind]bool{
		KindEventUpserted:  true,
		KindEventDeleted:   true,
		KindBulkReload:     true,
		KindProfileUpdated: false,
	} {
		if got := kind.AffectsCandidates(); got != want {
			t.Errorf("%s.AffectsCandidates() = %v, want %v", kind, got, want)
		}
	}
}

func TestEncodeDecodeMessage(t *testing.T) {
	t.Parallel()

	n := NewChangeNotification(KindEventDeleted, "e42")
	n.Source = "replica-a"

	msg, err := EncodeMessage(n)
	if err != nil {
		t.Fatalf("EncodeMessage() error = %v", err)
	}
	if msg.UUID != n.ID {
		t.Errorf("message UUID = %q, want notification id %q", msg.UUID, n.ID)
	}
	if got := msg.Metadata.Get(MetadataKind); got != string(KindEventDeleted) {
		t.Errorf("kind metadata = %q", got)
	}
	if got := msg.Metadata.Get(MetadataSource); got != "replica-a" {
		t.Errorf("source metadata = %q", got)
	}

	back, err := DecodeMessage(msg)
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	sig := back.Signal()
	if sig.Kind != KindEventDeleted || sig.EntityID != "e42" || !sig.OccurredAt.Equal(n.OccurredAt) {
		t.Errorf("Signal() = %+v", sig)
	}
}

func TestEncodeMessage_RejectsInvalid(t *testing.T) {
	t.Parallel()

	if _, err := EncodeMessage(&ChangeNotification{Kind: KindEventUpserted}); !errors.Is(err, ErrInvalidNotification) {
		t.Errorf("EncodeMessage() error = %v, want ErrInvalidNotification", err)
	}
}

func TestDecodeMessage_Malformed(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not json":      "{{{",
		"invalid shape": `{"id":"1","kind":"event_upserted"}`,
	}
	for name, payload := range tests {
		msg := message.NewMessage("m", []byte(payload))
		if _, err := DecodeMessage(msg); err == nil {
			t.Errorf("%s: DecodeMessage() should fail", name)
		}
	}
}
