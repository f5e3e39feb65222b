// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package cache

import (
	"sort"
	"strings"
	"sync"
)

// TrieNode is a node in the Trie.
type TrieNode struct {
	children map[rune]*TrieNode
	isEnd    bool
	value    string // original key, set when isEnd
	data     any
}

// Trie is a thread-safe prefix tree. Operations are O(m) in the key length.
//
// The result cache uses a case-sensitive Trie as its key index so prefix
// invalidation never scans the whole map. The taxonomy uses a
// case-insensitive one for exact and longest-prefix tag lookup.
type Trie struct {
	mu            sync.RWMutex
	root          *TrieNode
	size          int
	caseSensitive bool
}

// NewTrie creates a case-insensitive Trie.
func NewTrie() *Trie {
	return &Trie{root: newTrieNode()}
}

// NewCaseSensitiveTrie creates a Trie that compares keys byte for byte.
func NewCaseSensitiveTrie() *Trie {
	return &Trie{root: newTrieNode(), caseSensitive: true}
}

func newTrieNode() *TrieNode {
	return &TrieNode{children: make(map[rune]*TrieNode)}
}

func (t *Trie) normalizeKey(key string) string {
	if t.caseSensitive {
		return key
	}
	return strings.ToLower(key)
}

// Insert adds key without data.
func (t *Trie) Insert(key string) bool {
	return t.InsertWithData(key, nil)
}

// InsertWithData adds key with associated data, replacing any previous data.
// Returns true if key was not present before.
func (t *Trie) InsertWithData(key string, data any) bool {
	if key == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.root
	for _, ch := range t.normalizeKey(key) {
		next := node.children[ch]
		if next == nil {
			next = newTrieNode()
			node.children[ch] = next
		}
		node = next
	}

	isNew := !node.isEnd
	node.isEnd = true
	node.value = key
	node.data = data
	if isNew {
		t.size++
	}
	return isNew
}

// Search returns the data stored under key.
func (t *Trie) Search(key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.find(t.normalizeKey(key))
	if node == nil || !node.isEnd {
		return nil, false
	}
	return node.data, true
}

// HasPrefix reports whether any key starts with prefix.
func (t *Trie) HasPrefix(prefix string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if prefix == "" {
		return t.size > 0
	}
	return t.find(t.normalizeKey(prefix)) != nil
}

// KeysWithPrefix returns every stored key starting with prefix, sorted.
// An empty prefix returns all keys.
func (t *Trie) KeysWithPrefix(prefix string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.find(t.normalizeKey(prefix))
	if node == nil {
		return nil
	}

	var keys []string
	collectKeys(node, &keys)
	sort.Strings(keys)
	return keys
}

// LongestPrefix returns the longest stored key that is a prefix of s, with
// its data.
//
//	trie has "yoga", "yogalates"
//	LongestPrefix("yogalates-class") -> "yogalates"
//	LongestPrefix("yogaflow")        -> "yoga"
func (t *Trie) LongestPrefix(s string) (string, any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var (
		best  *TrieNode
		node  = t.root
		found bool
	)
	for _, ch := range t.normalizeKey(s) {
		node = node.children[ch]
		if node == nil {
			break
		}
		if node.isEnd {
			best, found = node, true
		}
	}
	if !found {
		return "", nil, false
	}
	return best.value, best.data, true
}

// Delete removes key and prunes empty branches. Returns true if it existed.
func (t *Trie) Delete(key string) bool {
	if key == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if deleteRunes(t.root, []rune(t.normalizeKey(key))) {
		t.size--
		return true
	}
	return false
}

// Size returns the number of stored keys.
func (t *Trie) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Clear removes all keys.
func (t *Trie) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.root = newTrieNode()
	t.size = 0
}

// find walks to the node for key. Caller holds the lock.
func (t *Trie) find(key string) *TrieNode {
	node := t.root
	for _, ch := range key {
		node = node.children[ch]
		if node == nil {
			return nil
		}
	}
	return node
}

func collectKeys(node *TrieNode, keys *[]string) {
	if node.isEnd {
		*keys = append(*keys, node.value)
	}
	for _, child := range node.children {
		collectKeys(child, keys)
	}
}

func deleteRunes(node *TrieNode, key []rune) bool {
	if len(key) == 0 {
		if !node.isEnd {
			return false
		}
		node.isEnd = false
		node.value = ""
		node.data = nil
		return true
	}

	child := node.children[key[0]]
	if child == nil {
		return false
	}

	deleted := deleteRunes(child, key[1:])
	if deleted && !child.isEnd && len(child.children) == 0 {
		delete(node.children, key[0])
	}
	return deleted
}
