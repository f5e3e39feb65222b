// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

// Package recommend ranks nearby events for a user.
//
// # Pipeline
//
// A call to Engine.Recommend runs four stages:
//
//  1. Build a UserContext from the request, the stored profile and the
//     participation history (Affinity, PreferredWindow).
//  2. Run the fallback cascade. Each level queries the event repository
//     through the shared ResultCache and filters in memory. The first level
//     that yields MinResults candidates wins; Any is the last resort.
//  3. Score every candidate on distance, interest, engagement and recency.
//     Malformed candidates are logged and excluded.
//  4. Sort by total score (then start time, then id) and trim.
//
// # Fallback levels
//
//	Exact -> RelaxedTime -> RelaxedDistance -> RelaxedCategory -> RelaxedAudience -> Any
//
// Levels only ever loosen constraints. Audience widening stops at the user's
// eligibility ceiling, so restricted events are never shown to users who
// may not join them.
//
// # Scoring
//
// Every component is normalized to [0,1] and the total is the weighted mean:
//
//	distance   = 1 - clamp(d / radius, 0, 1)        (neutral when location unknown)
//	interest   = max over tags of {1 direct, adjacent credit, 0}
//	engagement = min(1, ln(1+n) / ln(1+cap))
//	recency    = (base(h) + preferredBonus) / (1 + preferredBonus)
//
// # Thread Safety
//
// Engine is safe for concurrent use. The only shared mutable state is the
// injected ResultCache and atomic counters. Taxonomy is immutable after
// construction.
package recommend
