// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

/*
Package api exposes Rendezvous over HTTP using the chi router.

Routes (all under /api/v1):

	GET    /recommendations                  ranked events for the caller
	GET    /recommendations/boundary         search-radius polygon for map overlays
	GET    /events/{id}                      one event
	PUT    /events/{id}                      create or replace an event
	DELETE /events/{id}                      delete an event
	GET    /users/{id}/profile               profile of a user
	PUT    /users/{id}/profile               replace interests and gender
	POST   /users/{id}/participations        record a join request
	GET    /ws                               stale-recommendation notifications
	GET    /stats                            engine, cache and endpoint statistics
	GET    /health/live, /health/ready       probes

/metrics serves Prometheus metrics outside the versioned prefix.

Every JSON body uses the models.APIResponse envelope. Failures of the event
store surface as 503 REPOSITORY_UNAVAILABLE; a missing or unusable client
location never fails a request, it only changes how distance is scored.

Writes to events and profiles publish a change notification. The cache
maintenance service consumes those to drop cached candidates and tell
websocket clients to refresh.
*/
package api
