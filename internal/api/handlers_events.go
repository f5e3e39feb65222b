// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/rendezvous/internal/eventprocessor"
	"github.com/tomtom215/rendezvous/internal/logging"
	"github.com/tomtom215/rendezvous/internal/models"
	"github.com/tomtom215/rendezvous/internal/validation"
)

// entityPath holds a path identifier.
type entityPath struct {
	ID string `json:"id" validate:"required,max=128,printascii,excludesall=/?#"`
}

// pathID returns the {id} URL parameter, or writes a validation error.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := entityPath{ID: chi.URLParam(r, "id")}
	if verr := validation.ValidateStruct(&p); verr != nil {
		respondValidation(w, r, verr)
		return "", false
	}
	return p.ID, true
}

// GetEvent handles GET /api/v1/events/{id}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ev, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, ev, start)
}

// PutEvent handles PUT /api/v1/events/{id}. The event is created or
// replaced, then cached candidate lists are invalidated through a change
// notification.
func (h *Handler) PutEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in models.EventInput
	if !decodeBody(w, r, &in) {
		return
	}
	if verr := validation.ValidateStruct(&in); verr != nil {
		respondValidation(w, r, verr)
		return
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation,
			"latitude and longitude must be supplied together", map[string]any{"field": "latitude"})
		return
	}

	ev := in.ToEvent(id)
	if err := h.events.UpsertEvent(r.Context(), &ev); err != nil {
		respondFailure(w, r, err)
		return
	}
	h.notifier.Notify(r.Context(), eventprocessor.KindEventUpserted, id)

	logging.Ctx(r.Context()).Info().
		Str("event_id", sanitizeLogValue(id)).
		Str("status", string(ev.Status)).
		Msg("event upserted")
	respondSuccess(w, http.StatusOK, &ev, start)
}

// DeleteEvent handles DELETE /api/v1/events/{id}.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.events.DeleteEvent(r.Context(), id); err != nil {
		respondFailure(w, r, err)
		return
	}
	h.notifier.Notify(r.Context(), eventprocessor.KindEventDeleted, id)

	logging.Ctx(r.Context()).Info().Str("event_id", sanitizeLogValue(id)).Msg("event deleted")
	respondSuccess(w, http.StatusOK, map[string]any{"id": id, "deleted": true}, start)
}
