// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/rendezvous/internal/database/query"
	"github.com/tomtom215/rendezvous/internal/geo"
	"github.com/tomtom215/rendezvous/internal/metrics"
	"github.com/tomtom215/rendezvous/internal/models"
)

// ErrEventNotFound is returned for unknown or deleted event ids.
var ErrEventNotFound = errors.New("event not found")

const eventColumns = `id, title, category, subcategory, host_id, host_name, host_avatar_url,
	venue_name, latitude, longitude, start_time, capacity, participant_count, audience, status`

// QueryEvents returns upcoming, non-deleted events in the given statuses and
// audiences, ordered by start time ascending then id.
func (db *DB) QueryEvents(ctx context.Context, statuses []models.EventStatus, audiences []models.Audience, limit int) ([]models.CandidateEvent, error) {
	start := time.Now()
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	wb := query.NewWhereBuilder()
	query.AddIn(wb, "status", statuses)
	query.AddIn(wb, "audience", audiences)
	wb.AddStartsAfter(db.now()).AddNotDeleted()
	where, args := wb.BuildWithPrefix()

	q := fmt.Sprintf("SELECT %s FROM events %s ORDER BY start_time ASC, id ASC", eventColumns, where)
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	events, err := db.queryEvents(ctx, q, args...)
	metrics.RecordDBQuery("query_events", "events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return events, nil
}

// GetEvent returns one non-deleted event.
func (db *DB) GetEvent(ctx context.Context, id string) (*models.CandidateEvent, error) {
	start := time.Now()
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	q := fmt.Sprintf("SELECT %s FROM events WHERE id = ? AND deleted_at IS NULL", eventColumns)
	events, err := db.queryEvents(ctx, q, id)
	metrics.RecordDBQuery("get_event", "events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	if len(events) == 0 {
		return nil, ErrEventNotFound
	}
	return &events[0], nil
}

func (db *DB) queryEvents(ctx context.Context, q string, args ...interface{}) ([]models.CandidateEvent, error) {
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	events := []models.CandidateEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func scanEvent(rows *sql.Rows) (models.CandidateEvent, error) {
	var (
		ev       models.CandidateEvent
		lat, lon sql.NullFloat64
		audience string
		status   string
	)
	err := rows.Scan(
		&ev.ID, &ev.Title, &ev.Category, &ev.Subcategory,
		&ev.Host.ID, &ev.Host.DisplayName, &ev.Host.AvatarURL,
		&ev.VenueName, &lat, &lon, &ev.StartTime,
		&ev.Capacity, &ev.ParticipantCount, &audience, &status,
	)
	if err != nil {
		return ev, fmt.Errorf("scan event: %w", err)
	}
	if lat.Valid && lon.Valid {
		ev.Venue = &geo.Coordinate{Lat: lat.Float64, Lon: lon.Float64}
	}
	ev.StartTime = ev.StartTime.UTC()
	ev.Audience = models.Audience(audience)
	ev.Status = models.EventStatus(status)
	return ev, nil
}

// UpsertEvent inserts or replaces an event. Upserting a deleted id restores it.
func (db *DB) UpsertEvent(ctx context.Context, ev *models.CandidateEvent) error {
	if ev.ID == "" {
		return fmt.Errorf("event id is required")
	}
	start := time.Now()
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	var lat, lon sql.NullFloat64
	if ev.Venue != nil {
		lat = sql.NullFloat64{Float64: ev.Venue.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: ev.Venue.Lon, Valid: true}
	}
	now := db.now().UTC()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO events (id, title, category, subcategory, host_id, host_name, host_avatar_url,
			venue_name, latitude, longitude, start_time, capacity, participant_count, audience, status,
			created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory,
			host_id = EXCLUDED.host_id,
			host_name = EXCLUDED.host_name,
			host_avatar_url = EXCLUDED.host_avatar_url,
			venue_name = EXCLUDED.venue_name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			start_time = EXCLUDED.start_time,
			capacity = EXCLUDED.capacity,
			participant_count = EXCLUDED.participant_count,
			audience = EXCLUDED.audience,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL`,
		ev.ID, ev.Title, ev.Category, ev.Subcategory, ev.Host.ID, ev.Host.DisplayName, ev.Host.AvatarURL,
		ev.VenueName, lat, lon, ev.StartTime.UTC(), ev.Capacity, ev.ParticipantCount,
		string(ev.Audience), string(ev.Status), now, now,
	)
	metrics.RecordDBQuery("upsert_event", "events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("upsert event %s: %w", ev.ID, err)
	}
	return nil
}

// DeleteEvent soft-deletes an event. It returns ErrEventNotFound when the
// id is unknown or already deleted.
func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	start := time.Now()
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		"UPDATE events SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		db.now().UTC(), db.now().UTC(), id)
	metrics.RecordDBQuery("delete_event", "events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// CountEvents returns the number of non-deleted events.
func (db *DB) CountEvents(ctx context.Context) (int, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM events WHERE deleted_at IS NULL").Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
