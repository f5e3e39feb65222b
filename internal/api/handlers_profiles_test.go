// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/rendezvous/internal/eventprocessor"
	"github.com/tomtom215/rendezvous/internal/models"
)

func TestPutProfile(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	body := `{"display_name":"Alice","gender":"female","interest_tags":["jazz","board games"]}`
	rec := env.do(t, http.MethodPut, "/api/v1/users/alice/profile", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got models.UserProfile
	decodeData(t, rec, &got)
	if got.UserID != "alice" || got.Gender != models.GenderFemale || len(got.InterestTags) != 2 {
		t.Errorf("profile = %+v", got)
	}

	calls := env.notifier.recorded()
	if len(calls) != 1 || calls[0].kind != eventprocessor.KindProfileUpdated || calls[0].entityID != "alice" {
		t.Errorf("notifications = %+v, want one profile_updated for alice", calls)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/users/alice/profile", "")
	decodeData(t, rec, &got)
	if got.DisplayName != "Alice" {
		t.Errorf("display_name = %q, want Alice", got.DisplayName)
	}
}

func TestPutProfile_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"unknown gender", `{"gender":"other"}`},
		{"empty tag", `{"interest_tags":[""]}`},
		{"too many tags", `{"interest_tags":[` + strings.TrimSuffix(strings.Repeat(`"t",`, 51), ",") + `]}`},
		{"tag too long", `{"interest_tags":["` + strings.Repeat("a", 65) + `"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPut, "/api/v1/users/alice/profile", tt.body)
			assertError(t, rec, http.StatusBadRequest, ErrCodeValidation)
			if n := len(env.notifier.recorded()); n != 0 {
				t.Errorf("rejected write sent %d notifications", n)
			}
		})
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/users/nobody/profile", "")
	assertError(t, rec, http.StatusNotFound, ErrCodeNotFound)
}

func TestAddParticipation(t *testing.T) {
	t.Parallel()
	start := time.Date(2030, 3, 4, 18, 0, 0, 0, time.UTC)
	env := newTestEnv(t)
	env.events.events["ev-1"] = models.CandidateEvent{ID: "ev-1", Category: "music", StartTime: start}

	rec := env.do(t, http.MethodPost, "/api/v1/users/alice/participations", `{"event_id":"ev-1","approved":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got models.UserProfile
	decodeData(t, rec, &got)
	if len(got.Participations) != 1 {
		t.Fatalf("participations = %+v, want 1", got.Participations)
	}
	p := got.Participations[0]
	if p.Category != "music" || !p.StartTime.Equal(start) || !p.Approved {
		t.Errorf("participation = %+v, want music at %v approved", p, start)
	}

	calls := env.notifier.recorded()
	if len(calls) != 1 || calls[0].kind != eventprocessor.KindProfileUpdated {
		t.Errorf("notifications = %+v, want one profile_updated", calls)
	}
}

func TestAddParticipation_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"unknown event", `{"event_id":"missing"}`, http.StatusNotFound, ErrCodeNotFound},
		{"missing event id", `{"approved":true}`, http.StatusBadRequest, ErrCodeValidation},
		{"malformed body", `[]`, http.StatusBadRequest, ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPost, "/api/v1/users/alice/participations", tt.body)
			assertError(t, rec, tt.wantStatus, tt.wantCode)
			if n := len(env.notifier.recorded()); n != 0 {
				t.Errorf("rejected write sent %d notifications", n)
			}
		})
	}
}
