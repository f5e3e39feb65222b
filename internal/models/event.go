// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package models

import (
	"time"

	"github.com/tomtom215/rendezvous/internal/geo"
)

// Audience restricts who may see and join an event.
type Audience string

const (
	AudienceEveryone  Audience = "everyone"
	AudienceWomenOnly Audience = "women_only"
	AudienceMenOnly   Audience = "men_only"
)

// AllAudiences lists every audience in a stable order.
var AllAudiences = []Audience{AudienceEveryone, AudienceWomenOnly, AudienceMenOnly}

// Valid reports whether a is a known audience.
func (a Audience) Valid() bool {
	switch a {
	case AudienceEveryone, AudienceWomenOnly, AudienceMenOnly:
		return true
	}
	return false
}

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	StatusActive    EventStatus = "active"
	StatusFull      EventStatus = "full"
	StatusCancelled EventStatus = "cancelled"
	StatusCompleted EventStatus = "completed"
)

// RecommendableStatuses are the statuses the recommendation engine queries.
var RecommendableStatuses = []EventStatus{StatusActive, StatusFull}

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusActive, StatusFull, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Recommendable reports whether events in status s may be recommended.
func (s EventStatus) Recommendable() bool {
	return s == StatusActive || s == StatusFull
}

// Host is the display information of the user hosting an event.
type Host struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// CandidateEvent is an immutable snapshot of an event read from the store.
// Venue is nil when the event has no coordinates.
type CandidateEvent struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Category         string          `json:"category"`
	Subcategory      string          `json:"subcategory,omitempty"`
	Host             Host            `json:"host"`
	VenueName        string          `json:"venue_name,omitempty"`
	Venue            *geo.Coordinate `json:"venue,omitempty"`
	StartTime        time.Time       `json:"start_time"`
	Capacity         int             `json:"capacity"`
	ParticipantCount int             `json:"participant_count"`
	Audience         Audience        `json:"audience"`
	Status           EventStatus     `json:"status"`
}

// EventInput is the body of PUT /api/v1/events/{id}.
type EventInput struct {
	Title            string      `json:"title" validate:"required,max=200"`
	Category         string      `json:"category" validate:"required,max=64"`
	Subcategory      string      `json:"subcategory,omitempty" validate:"max=64"`
	HostID           string      `json:"host_id" validate:"required,max=128"`
	HostName         string      `json:"host_name" validate:"required,max=128"`
	HostAvatarURL    string      `json:"host_avatar_url,omitempty" validate:"omitempty,url"`
	VenueName        string      `json:"venue_name,omitempty" validate:"max=200"`
	Latitude         *float64    `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude        *float64    `json:"longitude,omitempty" validate:"omitempty,longitude"`
	StartTime        time.Time   `json:"start_time" validate:"required"`
	Capacity         int         `json:"capacity" validate:"min=1,max=10000"`
	ParticipantCount int         `json:"participant_count" validate:"min=0,ltefield=Capacity"`
	Audience         Audience    `json:"audience" validate:"required,oneof=everyone women_only men_only"`
	Status           EventStatus `json:"status" validate:"required,oneof=active full cancelled completed"`
}

// ToEvent converts the input into a CandidateEvent with the given id.
func (in *EventInput) ToEvent(id string) CandidateEvent {
	ev := CandidateEvent{
		ID:          id,
		Title:       in.Title,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Host: Host{
			ID:          in.HostID,
			DisplayName: in.HostName,
			AvatarURL:   in.HostAvatarURL,
		},
		VenueName:        in.VenueName,
		StartTime:        in.StartTime.UTC(),
		Capacity:         in.Capacity,
		ParticipantCount: in.ParticipantCount,
		Audience:         in.Audience,
		Status:           in.Status,
	}
	if in.Latitude != nil && in.Longitude != nil {
		ev.Venue = &geo.Coordinate{Lat: *in.Latitude, Lon: *in.Longitude}
	}
	return ev
}
