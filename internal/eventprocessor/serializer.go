// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package eventprocessor

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// Metadata keys set on every notification message.
const (
	MetadataKind   = "kind"
	MetadataSource = "source"
)

// EncodeMessage validates n and wraps it in a Watermill message whose UUID is
// the notification id.
func EncodeMessage(n *ChangeNotification) (*message.Message, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	msg := message.NewMessage(n.ID, data)
	msg.Metadata.Set(MetadataKind, string(n.Kind))
	if n.Source != "" {
		msg.Metadata.Set(MetadataSource, n.Source)
	}
	return msg, nil
}

// DecodeMessage parses and validates a notification payload.
func DecodeMessage(msg *message.Message) (*ChangeNotification, error) {
	var n ChangeNotification
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		return nil, fmt.Errorf("unmarshal notification: %w", err)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}
