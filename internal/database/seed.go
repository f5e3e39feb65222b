// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package database

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/rendezvous/internal/geo"
	"github.com/tomtom215/rendezvous/internal/models"
)

// DemoEventCount is the number of events SeedDemoData inserts.
const DemoEventCount = 60

// seedNamespace makes demo event ids stable across runs so reseeding
// replaces rather than duplicates.
var seedNamespace = uuid.MustParse("6f1c2a7e-3b8d-4f0a-9e55-1d2c3b4a5f60")

type demoTemplate struct {
	title       string
	category    string
	subcategory string
	venue       string
}

var demoTemplates = []demoTemplate{
	{"Morning coffee meetup", "food", "coffee", "Corner Roasters"},
	{"Sourdough workshop", "food", "baking", "Community Kitchen"},
	{"Natural wine tasting", "food", "wine", "Cellar Bar"},
	{"5k riverside run", "fitness", "running", "Riverside Path"},
	{"Sunrise yoga", "wellness", "yoga", "Park Pavilion"},
	{"Bouldering social", "fitness", "climbing", "The Wall"},
	{"Open mic night", "music", "open_mic", "The Basement"},
	{"Jazz jam session", "music", "jazz", "Blue Room"},
	{"Board game evening", "games", "board_games", "Meeple Cafe"},
	{"Go programming meetup", "tech", "programming", "Hackspace"},
	{"Sketching in the park", "arts", "drawing", "Botanical Gardens"},
	{"Photo walk", "arts", "photography", "Old Town Square"},
	{"Book club", "learning", "books", "Library Annex"},
	{"Language exchange", "learning", "languages", "Polyglot Pub"},
	{"Five-a-side football", "sports", "football", "Community Pitch"},
	{"Volunteer litter pick", "community", "volunteering", "Canal Bridge"},
}

var demoHosts = []models.Host{
	{ID: "host-alice", DisplayName: "Alice"},
	{ID: "host-bob", DisplayName: "Bob"},
	{ID: "host-chen", DisplayName: "Chen"},
	{ID: "host-dara", DisplayName: "Dara"},
	{ID: "host-emeka", DisplayName: "Emeka"},
}

// SeedDemoData inserts DemoEventCount upcoming events scattered within 60 km
// of center over the next two weeks. The data is deterministic for a given
// center and reseeding overwrites the previous set.
func (db *DB) SeedDemoData(ctx context.Context, center geo.Coordinate) (int, error) {
	if !center.Valid() {
		return 0, fmt.Errorf("seed center %s is not a valid coordinate", center)
	}

	// #nosec G404 -- demo data, not security sensitive
	rng := rand.New(rand.NewSource(int64(center.Lat*1e4) ^ int64(center.Lon*1e4)))
	base := db.now().UTC().Truncate(time.Hour).Add(time.Hour)

	for i := 0; i < DemoEventCount; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		tpl := demoTemplates[i%len(demoTemplates)]
		ev := demoEvent(i, tpl, center, base, rng)
		if err := db.UpsertEvent(ctx, &ev); err != nil {
			return i, fmt.Errorf("seed event %d: %w", i, err)
		}
	}

	db.logger.Info().
		Int("events", DemoEventCount).
		Str("center", center.String()).
		Msg("Seeded demo events")
	return DemoEventCount, nil
}

func demoEvent(i int, tpl demoTemplate, center geo.Coordinate, base time.Time, rng *rand.Rand) models.CandidateEvent {
	venue := geo.Destination(center, rng.Float64()*60, rng.Float64()*360)
	capacity := 4 + rng.Intn(40)
	participants := rng.Intn(capacity + 1)

	status := models.StatusActive
	if participants == capacity {
		status = models.StatusFull
	}
	audience := models.AudienceEveryone
	switch i % 10 {
	case 3:
		audience = models.AudienceWomenOnly
	case 7:
		audience = models.AudienceMenOnly
	}

	return models.CandidateEvent{
		ID:               uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("demo-%d", i))).String(),
		Title:            tpl.title,
		Category:         tpl.category,
		Subcategory:      tpl.subcategory,
		Host:             demoHosts[i%len(demoHosts)],
		VenueName:        tpl.venue,
		Venue:            &venue,
		StartTime:        base.Add(time.Duration(rng.Intn(14*24)) * time.Hour),
		Capacity:         capacity,
		ParticipantCount: participants,
		Audience:         audience,
		Status:           status,
	}
}
