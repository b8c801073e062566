// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"fmt"

	"github.com/whimsypingu/scuttle-go/internal/logging"
)

// installExtensions loads the fts extension used by Search and
// RebuildSearchIndex. DuckDB's Go driver has no API for registering a
// Go-callable scalar UDF, so the ranking boost used by Search is defined
// as a SQL macro instead of a native function.
func (c *Catalog) installExtensions() error {
	ctx, cancel := opCtx()
	defer cancel()

	for _, stmt := range []string{"INSTALL fts", "LOAD fts"} {
		if _, err := c.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}

	if _, err := c.conn.ExecContext(ctx, `CREATE MACRO IF NOT EXISTS ln_boost(x) AS (1 + ln(x + 1))`); err != nil {
		return fmt.Errorf("creating ln_boost macro: %w", err)
	}
	return nil
}

func (c *Catalog) createTables() error {
	ctx, cancel := opCtx()
	defer cancel()

	for _, stmt := range tableStatements {
		if _, err := c.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %s: %w", stmt, err)
		}
	}
	return nil
}

func (c *Catalog) createIndexes() error {
	ctx, cancel := opCtx()
	defer cancel()

	for _, stmt := range indexStatements {
		if _, err := c.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index: %s: %w", stmt, err)
		}
	}

	if err := c.rebuildSearchIndexLocked(ctx); err != nil {
		logging.Warn().Err(err).Msg("initial search index build failed")
	}
	return nil
}

var tableStatements = []string{
	`CREATE SEQUENCE IF NOT EXISTS artist_id_seq`,
	`CREATE SEQUENCE IF NOT EXISTS playlist_id_seq`,
	`CREATE TABLE IF NOT EXISTS tracks (
		id             TEXT PRIMARY KEY,
		title          TEXT NOT NULL,
		artist         TEXT NOT NULL,
		duration       DOUBLE NOT NULL DEFAULT 0,
		title_display  TEXT,
		artist_display TEXT,
		pref_weight    DOUBLE NOT NULL DEFAULT 1.0
	)`,
	`CREATE TABLE IF NOT EXISTS artists (
		id          BIGINT PRIMARY KEY DEFAULT nextval('artist_id_seq'),
		name        TEXT NOT NULL UNIQUE,
		pref_weight DOUBLE NOT NULL DEFAULT 1.0
	)`,
	`CREATE TABLE IF NOT EXISTS track_artists (
		track_id  TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
		artist_id BIGINT NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
		PRIMARY KEY (track_id, artist_id)
	)`,
	`CREATE TABLE IF NOT EXISTS downloads (
		id          TEXT PRIMARY KEY REFERENCES tracks(id) ON DELETE CASCADE,
		downloaded_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS playlists (
		id         BIGINT PRIMARY KEY DEFAULT nextval('playlist_id_seq'),
		name       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS playlist_tracks (
		playlist_id BIGINT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
		track_id    TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
		position    DOUBLE NOT NULL,
		PRIMARY KEY (playlist_id, track_id)
	)`,
	`CREATE TABLE IF NOT EXISTS likes (
		track_id TEXT PRIMARY KEY REFERENCES tracks(id) ON DELETE CASCADE,
		position DOUBLE NOT NULL
	)`,
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_playlist_tracks_playlist ON playlist_tracks(playlist_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_track_artists_artist ON track_artists(artist_id)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_position ON likes(position)`,
}
