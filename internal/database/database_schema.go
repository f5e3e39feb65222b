// Rendezvous - Location-Aware Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rendezvous

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaTimeout bounds DDL at startup.
const schemaTimeout = 30 * time.Second

func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()

	for _, q := range schemaQueries() {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", q, err)
		}
	}
	return nil
}

// Only the primary key is indexed. DuckDB rejects ON CONFLICT DO UPDATE
// assignments to columns referenced by an index, and its zonemaps already
// prune the start_time range scan.
func schemaQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			category TEXT NOT NULL,
			subcategory TEXT NOT NULL DEFAULT '',
			host_id TEXT NOT NULL,
			host_name TEXT NOT NULL,
			host_avatar_url TEXT NOT NULL DEFAULT '',
			venue_name TEXT NOT NULL DEFAULT '',
			latitude DOUBLE,
			longitude DOUBLE,
			start_time TIMESTAMP NOT NULL,
			capacity INTEGER NOT NULL,
			participant_count INTEGER NOT NULL DEFAULT 0,
			audience TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			deleted_at TIMESTAMP
		);`,
	}
}
