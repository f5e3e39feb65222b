// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

/*
Package models defines the data structures shared across Rendezvous.

Key Components:

  - CandidateEvent: immutable event snapshot read from the event store
  - UserProfile: interests, audience eligibility and participation history
  - APIResponse: the standard HTTP response envelope
  - EventInput, ProfileInput, ParticipationInput: validated request bodies

Audience eligibility lives here rather than in the ranking code because the
event store, the profile store and the API all apply it.
*/
package models
