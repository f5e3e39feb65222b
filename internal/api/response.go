// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rendezvous/internal/database"
	"github.com/tomtom215/rendezvous/internal/logging"
	"github.com/tomtom215/rendezvous/internal/models"
	"github.com/tomtom215/rendezvous/internal/profile"
	"github.com/tomtom215/rendezvous/internal/recommend"
	"github.com/tomtom215/rendezvous/internal/validation"
)

// Error codes.
const (
	ErrCodeBadRequest            = "BAD_REQUEST"
	ErrCodeValidation            = validation.CodeValidationError
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeTooManyRequests       = "TOO_MANY_REQUESTS"
	ErrCodeRepositoryUnavailable = "REPOSITORY_UNAVAILABLE"
	ErrCodeServiceUnavailable    = "SERVICE_UNAVAILABLE"
	ErrCodeInternal              = "INTERNAL_ERROR"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 * 1024

// sanitizeLogValue escapes control characters so client input cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func respondSuccess(w http.ResponseWriter, status int, data any, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: withRequestID(details, r),
		},
	})
}

func withRequestID(details map[string]any, r *http.Request) map[string]any {
	id := logging.RequestIDFromContext(r.Context())
	if id == "" {
		return details
	}
	if details == nil {
		details = make(map[string]any, 1)
	}
	details["request_id"] = id
	return details
}

func respondValidation(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}

// respondFailure maps a domain error onto a status and code. Unexpected
// errors are logged; their text never reaches the client.
func respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	var repoErr *recommend.RepositoryError
	switch {
	case errors.As(err, &repoErr):
		details := map[string]any{"operation": repoErr.Op}
		if repoErr.Timeout() {
			details["timeout"] = true
		}
		logging.Ctx(r.Context()).Warn().Err(err).Msg("event repository unavailable")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeRepositoryUnavailable, "Event store unavailable", details)
	case errors.Is(err, database.ErrEventNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Event not found", nil)
	case errors.Is(err, profile.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Profile not found", nil)
	default:
		logging.Ctx(r.Context()).Error().Str("error", sanitizeLogValue(err.Error())).
			Str("path", r.URL.Path).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", nil)
	}
}

// decodeBody reads a JSON body into dst, rejecting unknown fields and
// trailing data.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body: "+sanitizeLogValue(err.Error()), nil)
		return false
	}
	if dec.More() {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Request body must contain a single JSON object", nil)
		return false
	}
	return true
}
