// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/rendezvous/internal/cache"
)

// ErrCacheMiss is reported internally when a query key is not cached.
var ErrCacheMiss = cache.ErrCacheMiss

// RepositoryError is a failed or timed out event repository call. It aborts
// the whole recommendation request.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("event repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// Timeout reports whether the repository call hit its deadline.
func (e *RepositoryError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// IsRepositoryError reports whether err wraps a RepositoryError.
func IsRepositoryError(err error) bool {
	var re *RepositoryError
	return errors.As(err, &re)
}

// InvalidCandidate marks an event that cannot be scored because its data is
// malformed. The event is excluded; the batch continues.
type InvalidCandidate struct {
	EventID string
	Reason  string
}

func (e *InvalidCandidate) Error() string {
	if e.EventID == "" {
		return "invalid candidate: " + e.Reason
	}
	return fmt.Sprintf("invalid candidate %s: %s", e.EventID, e.Reason)
}

// Reasons for InvalidCandidate. They double as metric labels.
const (
	ReasonMissingID        = "missing_id"
	ReasonMissingVenue     = "missing_venue"
	ReasonInvalidVenue     = "invalid_venue"
	ReasonMissingStart     = "missing_start_time"
	ReasonBadParticipation = "participants_out_of_range"
	ReasonBadStatus        = "ineligible_status"
	ReasonBadAudience      = "unknown_audience"
)

// wrapRepositoryError converts any query failure into a RepositoryError.
func wrapRepositoryError(op string, err error) error {
	var re *RepositoryError
	if errors.As(err, &re) {
		return err
	}
	return &RepositoryError{Op: op, Err: err}
}
