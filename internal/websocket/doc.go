// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

// Package websocket pushes recommendation invalidations to connected clients.
//
// Clients connect to /api/v1/ws and never receive recommendations over the
// socket. They receive a recommendations_stale frame when the candidate set
// or their own profile changed, and re-query the HTTP endpoint:
//
//	{"type":"recommendations_stale","data":{"reason":"event_upserted","entity_id":"...","coalesced":0,"timestamp":"..."}}
//
// Stale notices caused by a profile update carry the user id and are
// delivered only to that user's connections. Everything else is broadcast.
//
// The Hub runs under suture supervision through RunWithContext. Each
// Client runs a read pump (answers "ping" frames, detects disconnects) and
// a write pump (serializes frames, sends protocol pings). A client whose
// send buffer is full is dropped rather than slowing the broadcast.
package websocket
