// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

/*
Package cache provides the recommendation result cache and the prefix trie it
indexes keys with.

# ResultCache

ResultCache[V] stores fetched values under canonical query keys with a TTL:

	rc := cache.NewResultCache[[]models.CandidateEvent](
	    cache.WithName("candidates"),
	    cache.WithCleanupInterval(time.Minute),
	)
	defer rc.Close()

	events, err := rc.Get(ctx, "events:active,full|everyone|500", fetch, 2*time.Minute)

Change notifications call InvalidatePrefix("events:") to drop every cached
event query at once. Keys are indexed in a Trie, so invalidation touches
only matching keys.

Misses for the same key are collapsed with golang.org/x/sync/singleflight.
Errors are never cached.

# Trie

Trie is a rune-keyed prefix tree with exact, prefix and longest-prefix
lookups. It is case-insensitive unless built with NewCaseSensitiveTrie.
*/
package cache
