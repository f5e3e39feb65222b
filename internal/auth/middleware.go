// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/rendezvous/internal/config"
	"github.com/tomtom215/rendezvous/internal/logging"
	"github.com/tomtom215/rendezvous/internal/models"
)

// Mode is the authentication strategy.
type Mode string

const (
	ModeNone Mode = "none"
	ModeJWT  Mode = "jwt"
)

const (
	// UserIDParam carries the user id in ModeNone.
	UserIDParam = "user_id"
	// UserIDHeader is the header alternative to UserIDParam.
	UserIDHeader = "X-User-ID"
	// TokenCookie holds the bearer token for clients that cannot set headers.
	TokenCookie = "token"
)

// maxUserIDLength bounds identities accepted from unauthenticated input.
const maxUserIDLength = 128

// Middleware resolves the requesting user and stores it in the context.
type Middleware struct {
	mode    Mode
	manager *JWTManager
	logger  zerolog.Logger
}

// NewMiddleware creates the middleware for the configured mode.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewMiddleware(cfg *config.SecurityConfig, logger zerolog.Logger) (*Middleware, error) {
	m := &Middleware{
		mode:   Mode(cfg.AuthMode),
		logger: logger.With().Str("component", "auth").Logger(),
	}
	switch m.mode {
	case ModeNone:
	case ModeJWT:
		mgr, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		m.manager = mgr
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
	return m, nil
}

// Mode returns the active mode.
func (m *Middleware) Mode() Mode { return m.mode }

// Authenticate resolves the user id. Requests without credentials continue
// anonymously; requests with bad credentials are rejected with 401.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.identify(r)
		switch {
		case errors.Is(err, ErrNoCredentials):
		case err != nil:
			m.logger.Debug().Err(err).
				Str("request_id", logging.RequestIDFromContext(r.Context())).
				Msg("rejected credentials")
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", unauthorizedMessage(err))
			return
		default:
			r = r.WithContext(logging.ContextWithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) identify(r *http.Request) (string, error) {
	if m.mode == ModeJWT {
		raw := bearerToken(r)
		if raw == "" {
			return "", ErrNoCredentials
		}
		claims, err := m.manager.ValidateToken(raw)
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}

	id := strings.TrimSpace(r.URL.Query().Get(UserIDParam))
	if id == "" {
		id = strings.TrimSpace(r.Header.Get(UserIDHeader))
	}
	if id == "" {
		return "", ErrNoCredentials
	}
	if len(id) > maxUserIDLength {
		return "", fmt.Errorf("%w: user id longer than %d characters", ErrInvalidCredentials, maxUserIDLength)
	}
	return id, nil
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func unauthorizedMessage(err error) string {
	if errors.Is(err, ErrExpiredCredentials) {
		return "Token expired"
	}
	return "Invalid credentials"
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logging.UserIDFromContext(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSelf rejects requests whose user differs from the path owner
// returned by owner. In ModeNone any caller may act for any user.
func (m *Middleware) RequireSelf(owner func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.mode == ModeNone {
				next.ServeHTTP(w, r)
				return
			}
			userID := logging.UserIDFromContext(r.Context())
			if userID == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}
			if userID != owner(r) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Token subject does not own this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="rendezvous"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message},
	})
}
