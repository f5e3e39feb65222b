// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

// Package testinfra starts throwaway containers for integration tests.
//
// Everything here is behind the integration build tag and needs Docker:
//
//	func TestChangeFeed_JetStream(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    natsC, err := testinfra.StartNATS(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, natsC)
//	    // connect to natsC.URL ...
//	}
//
// Tests skip themselves when Docker is unavailable. The first run pulls the
// image; later runs use the local cache.
package testinfra
