// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

//go:build !nats

package eventprocessor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/config"
)

// NewNATSPubSub returns ErrNATSNotEnabled in builds without the nats tag.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewNATSPubSub(_ context.Context, _ *config.NATSConfig, _ string, _ zerolog.Logger) (*PubSub, error) {
	return nil, ErrNATSNotEnabled
}
