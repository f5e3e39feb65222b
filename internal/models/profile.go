// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package models

import "time"

// Gender determines which audience-restricted events a user may see.
type Gender string

const (
	GenderUnspecified Gender = ""
	GenderFemale      Gender = "female"
	GenderMale        Gender = "male"
)

// EligibleAudiences returns the widest audience set a user of gender g may
// see. Everyone is always included.
func (g Gender) EligibleAudiences() []Audience {
	switch g {
	case GenderFemale:
		return []Audience{AudienceEveryone, AudienceWomenOnly}
	case GenderMale:
		return []Audience{AudienceEveryone, AudienceMenOnly}
	default:
		return []Audience{AudienceEveryone}
	}
}

// CanSee reports whether a user of gender g may see events for audience a.
func (g Gender) CanSee(a Audience) bool {
	for _, allowed := range g.EligibleAudiences() {
		if allowed == a {
			return true
		}
	}
	return false
}

// Participation is one event a user asked to join.
// Only approved participations feed engagement signals.
type Participation struct {
	EventID   string    `json:"event_id"`
	Category  string    `json:"category"`
	StartTime time.Time `json:"start_time"`
	Approved  bool      `json:"approved"`
}

// UserProfile is the persisted state the recommendation engine reads per user.
type UserProfile struct {
	UserID         string          `json:"user_id"`
	DisplayName    string          `json:"display_name,omitempty"`
	Gender         Gender          `json:"gender,omitempty"`
	InterestTags   []string        `json:"interest_tags"`
	Participations []Participation `json:"participations,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ProfileInput is the body of PUT /api/v1/users/{id}/profile.
type ProfileInput struct {
	DisplayName  string   `json:"display_name" validate:"max=128"`
	Gender       Gender   `json:"gender" validate:"omitempty,oneof=female male"`
	InterestTags []string `json:"interest_tags" validate:"max=50,dive,min=1,max=64"`
}

// ParticipationInput is the body of POST /api/v1/users/{id}/participations.
type ParticipationInput struct {
	EventID  string `json:"event_id" validate:"required,max=128"`
	Approved bool   `json:"approved"`
}
