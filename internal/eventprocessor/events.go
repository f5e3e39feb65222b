// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TopicEventsChanged is the topic every change notification is published on.
const TopicEventsChanged = "events.changed"

// SchemaVersion is the current notification payload version.
const SchemaVersion = 1

// ChangeKind names what changed.
type ChangeKind string

const (
	KindEventUpserted  ChangeKind = "event_upserted"
	KindEventDeleted   ChangeKind = "event_deleted"
	KindProfileUpdated ChangeKind = "profile_updated"
	KindBulkReload     ChangeKind = "bulk_reload"
)

// Valid reports whether k is a known kind.
func (k ChangeKind) Valid() bool {
	switch k {
	case KindEventUpserted, KindEventDeleted, KindProfileUpdated, KindBulkReload:
		return true
	}
	return false
}

// AffectsCandidates reports whether the change can alter cached candidate
// lists. Profile updates only change scoring inputs, which are never cached.
func (k ChangeKind) AffectsCandidates() bool {
	return k != KindProfileUpdated
}

// ChangeNotification is the wire payload on TopicEventsChanged.
type ChangeNotification struct {
	SchemaVersion int        `json:"schema_version"`
	ID            string     `json:"id"`
	Kind          ChangeKind `json:"kind"`
	// EntityID is the event id, or the user id for profile updates. Empty
	// for bulk reloads.
	EntityID   string    `json:"entity_id,omitempty"`
	Source     string    `json:"source,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewChangeNotification creates a notification with a fresh id.
func NewChangeNotification(kind ChangeKind, entityID string) *ChangeNotification {
	return &ChangeNotification{
		SchemaVersion: SchemaVersion,
		ID:            uuid.New().String(),
		Kind:          kind,
		EntityID:      entityID,
		OccurredAt:    time.Now().UTC(),
	}
}

// Validate checks required fields.
func (n *ChangeNotification) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidNotification)
	}
	if !n.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidNotification, n.Kind)
	}
	if n.EntityID == "" && n.Kind != KindBulkReload {
		return fmt.Errorf("%w: entity_id is required for %s", ErrInvalidNotification, n.Kind)
	}
	if n.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurred_at is required", ErrInvalidNotification)
	}
	return nil
}

// Signal is a decoded notification handed to consumers.
type Signal struct {
	Kind       ChangeKind
	EntityID   string
	OccurredAt time.Time
}

// Signal converts the wire payload to its consumer form.
func (n *ChangeNotification) Signal() Signal {
	return Signal{Kind: n.Kind, EntityID: n.EntityID, OccurredAt: n.OccurredAt}
}
