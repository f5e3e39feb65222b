// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/rendezvous/internal/eventprocessor"
	"github.com/tomtom215/rendezvous/internal/logging"
	"github.com/tomtom215/rendezvous/internal/models"
	"github.com/tomtom215/rendezvous/internal/validation"
)

// GetProfile handles GET /api/v1/users/{id}/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, start)
}

// PutProfile handles PUT /api/v1/users/{id}/profile. Participation history
// is kept; only the editable fields are replaced.
func (h *Handler) PutProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := pathID(w, r)
	if !ok {
		return
	}

	var in models.ProfileInput
	if !decodeBody(w, r, &in) {
		return
	}
	if verr := validation.ValidateStruct(&in); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	p, err := h.profiles.PutProfile(r.Context(), userID, &in)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	h.notifier.Notify(r.Context(), eventprocessor.KindProfileUpdated, userID)

	logging.Ctx(r.Context()).Debug().
		Str("profile_user_id", sanitizeLogValue(userID)).
		Int("interest_tags", len(p.InterestTags)).
		Msg("profile updated")
	respondSuccess(w, http.StatusOK, p, start)
}

// AddParticipation handles POST /api/v1/users/{id}/participations. The
// event's category and start time are copied from the event store so the
// engagement and preferred-hour signals survive later event deletion.
func (h *Handler) AddParticipation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := pathID(w, r)
	if !ok {
		return
	}

	var in models.ParticipationInput
	if !decodeBody(w, r, &in) {
		return
	}
	if verr := validation.ValidateStruct(&in); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ev, err := h.events.GetEvent(r.Context(), in.EventID)
	if err != nil {
		respondFailure(w, r, err)
		return
	}

	p, err := h.profiles.AddParticipation(r.Context(), userID, models.Participation{
		EventID:   ev.ID,
		Category:  ev.Category,
		StartTime: ev.StartTime,
		Approved:  in.Approved,
	})
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	h.notifier.Notify(r.Context(), eventprocessor.KindProfileUpdated, userID)

	respondSuccess(w, http.StatusCreated, p, start)
}
