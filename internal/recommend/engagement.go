// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package recommend

import (
	"time"

	"github.com/tomtom215/rendezvous/internal/models"
)

// windowSize is the length of the preferred activity window in hours.
const windowSize = 4

// HistoryEntry is one approved past participation.
type HistoryEntry struct {
	Category  string
	StartHour int
}

// HistoryFromParticipations keeps approved participations and converts their
// start times to hours in loc.
func HistoryFromParticipations(ps []models.Participation, loc *time.Location) []HistoryEntry {
	history := make([]HistoryEntry, 0, len(ps))
	for _, p := range ps {
		if !p.Approved || p.StartTime.IsZero() {
			continue
		}
		history = append(history, HistoryEntry{
			Category:  p.Category,
			StartHour: p.StartTime.In(loc).Hour(),
		})
	}
	return history
}

// Affinity counts participations per category. There is no time decay.
func Affinity(history []HistoryEntry) map[string]int {
	counts := make(map[string]int)
	for _, h := range history {
		if cat := normalize(h.Category); cat != "" {
			counts[cat]++
		}
	}
	return counts
}

// PreferredWindow returns the four consecutive hours (mod 24) holding the
// most participations, starting at the smallest hour on ties. It returns an
// empty slice for empty history.
func PreferredWindow(history []HistoryEntry) []int {
	if len(history) == 0 {
		return []int{}
	}

	var byHour [24]int
	for _, h := range history {
		byHour[((h.StartHour%24)+24)%24]++
	}

	best, bestSum := 0, -1
	for s := 0; s < 24; s++ {
		sum := 0
		for i := 0; i < windowSize; i++ {
			sum += byHour[(s+i)%24]
		}
		if sum > bestSum {
			best, bestSum = s, sum
		}
	}

	window := make([]int, windowSize)
	for i := range window {
		window[i] = (best + i) % 24
	}
	return window
}
