// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

// Package auth identifies the user behind an API request.
//
// Two modes are supported, selected by AUTH_MODE:
//
//   - none: the user id is taken from the user_id query parameter or the
//     X-User-ID header. Intended for development and trusted networks only;
//     config validation rejects it in production.
//   - jwt: an HS256 bearer token is required and its "sub" claim is the
//     user id. Tokens are accepted from the Authorization header or, for
//     websocket upgrades that cannot set headers, the "token" cookie.
//
// The resolved user id is stored in the request context with
// logging.ContextWithUserID so the access log and the recommendation engine
// see the same identity. Anonymous requests are allowed in both modes
// unless a route is wrapped with RequireUser.
package auth
