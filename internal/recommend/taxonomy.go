// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package recommend

import (
	"sort"
	"strings"

	"github.com/tomtom215/rendezvous/internal/cache"
	"github.com/tomtom215/rendezvous/internal/config"
)

// defaultTagCategories maps free-form interest tags to event categories.
// Every category also maps to itself.
var defaultTagCategories = map[string]string{
	"espresso": "coffee", "latte": "coffee", "cafe": "coffee", "café": "coffee",
	"brunch": "food", "cooking": "food", "baking": "food", "street food": "food",
	"wine": "drinks", "craft beer": "drinks", "cocktails": "drinks",
	"gym": "fitness", "running": "fitness", "pilates": "fitness", "crossfit": "fitness", "cycling": "fitness",
	"yoga": "wellness", "meditation": "wellness", "breathwork": "wellness",
	"football": "sports", "tennis": "sports", "basketball": "sports", "padel": "sports",
	"hiking": "outdoors", "climbing": "outdoors", "camping": "outdoors", "kayaking": "outdoors",
	"board games": "gaming", "boardgames": "gaming", "video games": "gaming", "esports": "gaming", "chess": "gaming",
	"jazz": "music", "concerts": "music", "karaoke": "music", "open mic": "music",
	"painting": "arts", "photography": "arts", "pottery": "arts", "drawing": "arts",
	"museums": "culture", "theatre": "culture", "theater": "culture", "film": "culture",
	"books": "learning", "book club": "learning", "language exchange": "learning", "workshops": "learning",
	"coding": "tech", "startups": "tech", "hackathon": "tech",
	"dancing": "nightlife", "clubbing": "nightlife", "salsa": "nightlife",
	"meetups": "social", "networking": "social", "picnic": "social",
	"volunteer": "volunteering", "charity": "volunteering", "community": "volunteering",
}

// defaultAdjacency lists related category pairs. It is made symmetric.
var defaultAdjacency = map[string][]string{
	"coffee":       {"food", "social"},
	"food":         {"drinks"},
	"drinks":       {"nightlife", "social"},
	"fitness":      {"wellness", "sports"},
	"sports":       {"outdoors"},
	"outdoors":     {"wellness"},
	"gaming":       {"tech"},
	"music":        {"nightlife", "arts"},
	"arts":         {"culture"},
	"culture":      {"learning"},
	"learning":     {"tech"},
	"volunteering": {"social"},
}

// Taxonomy maps interest tags to categories and knows which categories are
// related. It is immutable after construction and safe for concurrent use.
type Taxonomy struct {
	tags       *cache.Trie
	adjacency  map[string]map[string]struct{}
	categories []string
}

// NewTaxonomy builds a taxonomy from tag->category and category adjacency
// tables. Keys are case-insensitive and adjacency is made symmetric.
func NewTaxonomy(tagCategories map[string]string, adjacency map[string][]string) *Taxonomy {
	t := &Taxonomy{
		tags:      cache.NewTrie(),
		adjacency: make(map[string]map[string]struct{}),
	}

	cats := make(map[string]struct{})
	for tag, cat := range tagCategories {
		cat = normalize(cat)
		if tag = normalize(tag); tag == "" || cat == "" {
			continue
		}
		t.tags.InsertWithData(tag, cat)
		cats[cat] = struct{}{}
	}
	for cat, related := range adjacency {
		cats[normalize(cat)] = struct{}{}
		for _, r := range related {
			t.link(normalize(cat), normalize(r))
			cats[normalize(r)] = struct{}{}
		}
	}
	for cat := range cats {
		if cat == "" {
			continue
		}
		if _, ok := t.tags.Search(cat); !ok {
			t.tags.InsertWithData(cat, cat)
		}
		t.categories = append(t.categories, cat)
	}
	sort.Strings(t.categories)
	return t
}

// DefaultTaxonomy returns the built-in taxonomy.
func DefaultTaxonomy() *Taxonomy {
	return NewTaxonomy(defaultTagCategories, defaultAdjacency)
}

// TaxonomyFromSettings layers configured overrides over the built-in tables.
func TaxonomyFromSettings(tc config.TaxonomyConfig) *Taxonomy {
	tags := make(map[string]string, len(defaultTagCategories)+len(tc.TagCategories))
	for k, v := range defaultTagCategories {
		tags[k] = v
	}
	for k, v := range tc.TagCategories {
		tags[k] = v
	}

	adjacency := make(map[string][]string, len(defaultAdjacency)+len(tc.Adjacency))
	for k, v := range defaultAdjacency {
		adjacency[k] = append(adjacency[k], v...)
	}
	for k, v := range tc.Adjacency {
		adjacency[k] = append(adjacency[k], v...)
	}
	return NewTaxonomy(tags, adjacency)
}

func (t *Taxonomy) link(a, b string) {
	if a == "" || b == "" || a == b {
		return
	}
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		set := t.adjacency[pair[0]]
		if set == nil {
			set = make(map[string]struct{})
			t.adjacency[pair[0]] = set
		}
		set[pair[1]] = struct{}{}
	}
}

// CategoryFor resolves a tag to a category: exact tag first, then the
// longest known tag that prefixes it ("yoga-flow" -> "yoga" -> wellness).
func (t *Taxonomy) CategoryFor(tag string) (string, bool) {
	tag = normalize(tag)
	if tag == "" {
		return "", false
	}
	if data, ok := t.tags.Search(tag); ok {
		return data.(string), true
	}
	if _, data, ok := t.tags.LongestPrefix(tag); ok {
		return data.(string), true
	}
	return "", false
}

// Adjacent reports whether two distinct categories are related.
func (t *Taxonomy) Adjacent(a, b string) bool {
	_, ok := t.adjacency[normalize(a)][normalize(b)]
	return ok
}

// Categories returns every known category, sorted.
func (t *Taxonomy) Categories() []string {
	out := make([]string, len(t.categories))
	copy(out, t.categories)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
