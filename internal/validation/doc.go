// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

// Package validation validates request structs with go-playground/validator
// v10 and translates failures into the API's VALIDATION_ERROR shape.
//
// A single validator instance is shared process-wide so struct metadata is
// parsed once. Field names in error messages are the JSON (or query) names
// the client sent, not the Go field names:
//
//	q := validation.RecommendationQuery{TimeRange: "tomorrow"}
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // apiErr.Message == "time_range must be one of: none now within_hour hour today"
//	}
//
// Besides the built-in tags the validator registers "category", which
// accepts lowercase slugs such as "board-games" or "live_music".
package validation
