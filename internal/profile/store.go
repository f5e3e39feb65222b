// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

// Package profile persists user profiles in BadgerDB.
//
// A profile holds the inputs the recommendation engine reads per user:
// declared interest tags, gender (which decides audience eligibility) and
// the participation history that drives engagement affinity and the
// preferred activity window. Values are stored as JSON under
// "profile:<user id>".
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/metrics"
	"github.com/tomtom215/rendezvous/internal/models"
)

const profileKeyPrefix = "profile:"

// MaxParticipations bounds the stored history per user. Older entries are
// dropped first.
const MaxParticipations = 500

var (
	// ErrNotFound is returned when no profile exists for a user.
	ErrNotFound = errors.New("profile not found")

	// ErrStoreClosed is returned after Close.
	ErrStoreClosed = errors.New("profile store is closed")

	// ErrInvalidUserID is returned for an empty user id.
	ErrInvalidUserID = errors.New("user id is required")
)

// Store is a BadgerDB-backed profile store. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the store at path. inMemory ignores path and keeps
// everything in RAM.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Open(path string, inMemory bool, logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	// Badger's own logger is too chatty for service logs.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "profiles").Logger(),
		now:    time.Now,
	}
	s.logger.Info().Str("path", path).Bool("in_memory", inMemory).Msg("Profile store opened")
	return s, nil
}

func profileKey(userID string) []byte {
	return []byte(profileKeyPrefix + userID)
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// GetProfile returns the stored profile or ErrNotFound.
func (s *Store) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var p *models.UserProfile
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = readProfile(txn, userID)
		return err
	})

	switch {
	case errors.Is(err, ErrNotFound):
		metrics.RecordProfileOperation("get", "not_found")
		return nil, ErrNotFound
	case err != nil:
		metrics.RecordProfileOperation("get", "error")
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	metrics.RecordProfileOperation("get", "success")
	return p, nil
}

// PutProfile creates or replaces the declared fields of a profile. The
// participation history is preserved.
func (s *Store) PutProfile(ctx context.Context, userID string, in *models.ProfileInput) (*models.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var out *models.UserProfile
	err := s.update(func(txn *badger.Txn) error {
		p, err := readProfile(txn, userID)
		if errors.Is(err, ErrNotFound) {
			p = &models.UserProfile{UserID: userID}
		} else if err != nil {
			return err
		}

		p.DisplayName = in.DisplayName
		p.Gender = in.Gender
		p.InterestTags = dedupeTags(in.InterestTags)
		p.UpdatedAt = s.now().UTC()

		out = p
		return writeProfile(txn, p)
	})
	if err != nil {
		metrics.RecordProfileOperation("put", "error")
		return nil, fmt.Errorf("put profile %s: %w", userID, err)
	}

	metrics.RecordProfileOperation("put", "success")
	s.logger.Debug().Str("user_id", userID).Int("tags", len(out.InterestTags)).Msg("Profile updated")
	return out, nil
}

// AddParticipation appends p to the user's history, replacing an existing
// entry for the same event. A profile is created on first participation.
func (s *Store) AddParticipation(ctx context.Context, userID string, p models.Participation) (*models.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}
	if p.EventID == "" {
		return nil, fmt.Errorf("participation event id is required")
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var out *models.UserProfile
	err := s.update(func(txn *badger.Txn) error {
		prof, err := readProfile(txn, userID)
		if errors.Is(err, ErrNotFound) {
			prof = &models.UserProfile{UserID: userID, InterestTags: []string{}}
		} else if err != nil {
			return err
		}

		replaced := false
		for i := range prof.Participations {
			if prof.Participations[i].EventID == p.EventID {
				prof.Participations[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			prof.Participations = append(prof.Participations, p)
		}
		if n := len(prof.Participations); n > MaxParticipations {
			prof.Participations = prof.Participations[n-MaxParticipations:]
		}
		prof.UpdatedAt = s.now().UTC()

		out = prof
		return writeProfile(txn, prof)
	})
	if err != nil {
		metrics.RecordProfileOperation("add_participation", "error")
		return nil, fmt.Errorf("add participation for %s: %w", userID, err)
	}

	metrics.RecordProfileOperation("add_participation", "success")
	return out, nil
}

// DeleteProfile removes a profile. Deleting a missing profile is not an error.
func (s *Store) DeleteProfile(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(profileKey(userID))
	})
	if err != nil {
		metrics.RecordProfileOperation("delete", "error")
		return fmt.Errorf("delete profile %s: %w", userID, err)
	}
	metrics.RecordProfileOperation("delete", "success")
	return nil
}

// Count returns the number of stored profiles.
func (s *Store) Count() (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(profileKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Ping reports whether the store can serve reads.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// Close closes the underlying database. It is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	s.logger.Info().Msg("Profile store closed")
	return nil
}

// maxConflictRetries bounds retries of read-modify-write transactions that
// lose a race with a concurrent writer.
const maxConflictRetries = 10

func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func readProfile(txn *badger.Txn, userID string) (*models.UserProfile, error) {
	item, err := txn.Get(profileKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}

	var p models.UserProfile
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	if p.InterestTags == nil {
		p.InterestTags = []string{}
	}
	return &p, nil
}

func writeProfile(txn *badger.Txn, p *models.UserProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	return txn.SetEntry(badger.NewEntry(profileKey(p.UserID), data))
}

// dedupeTags lowercases and trims tags, dropping blanks and duplicates while
// keeping first-seen order.
func dedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
