// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"fmt"
	"strings"
)

// RegisterTrack upserts track, splitting Artist on "; " into one-or-more
// artist rows linked via track_artists, then emits log_track.
func (c *Catalog) RegisterTrack(t Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("register_track: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tracks (id, title, artist, duration, title_display, artist_display)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			duration = excluded.duration,
			title_display = excluded.title_display,
			artist_display = excluded.artist_display
	`, t.ID, t.Title, t.Artist, t.Duration, t.TitleDisplay, t.ArtistDisplay)
	if err != nil {
		return fmt.Errorf("register_track: upsert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM track_artists WHERE track_id = ?`, t.ID); err != nil {
		return fmt.Errorf("register_track: clear artist links: %w", err)
	}

	for _, name := range splitArtists(t.Artist) {
		var artistID int64
		row := tx.QueryRowContext(ctx, `
			INSERT INTO artists (name) VALUES (?)
			ON CONFLICT (name) DO UPDATE SET name = excluded.name
			RETURNING id
		`, name)
		if err := row.Scan(&artistID); err != nil {
			return fmt.Errorf("register_track: upsert artist %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO track_artists (track_id, artist_id) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, t.ID, artistID); err != nil {
			return fmt.Errorf("register_track: link artist: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("register_track: commit: %w", err)
	}

	c.publish(ActionLogTrack, t)
	return nil
}

// splitArtists breaks a delimited artist aggregate into individual names.
func splitArtists(artist string) []string {
	parts := strings.Split(artist, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = append(out, artist)
	}
	return out
}

// RegisterDownload records that id's audio file now exists, fetching the
// denormalized track row (with display-field coalesce) to include in the
// emitted event. Fails with ErrUnknownTrack if the track row is missing.
func (c *Catalog) RegisterDownload(id string) (Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	t, err := c.fetchTrackLocked(ctx, id)
	if err != nil {
		return Track{}, err
	}

	if _, err := c.conn.ExecContext(ctx, `
		INSERT INTO downloads (id) VALUES (?) ON CONFLICT DO NOTHING
	`, id); err != nil {
		return Track{}, fmt.Errorf("register_download: %w", err)
	}

	c.publish(ActionLogDownload, t)
	return t, nil
}

func (c *Catalog) fetchTrackLocked(ctx context.Context, id string) (Track, error) {
	var t Track
	var titleDisplay, artistDisplay *string
	row := c.conn.QueryRowContext(ctx, `
		SELECT id, title, artist, duration, title_display, artist_display
		FROM tracks WHERE id = ?
	`, id)
	if err := row.Scan(&t.ID, &t.Title, &t.Artist, &t.Duration, &titleDisplay, &artistDisplay); err != nil {
		return Track{}, fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}
	if titleDisplay != nil {
		t.TitleDisplay = *titleDisplay
	}
	if artistDisplay != nil {
		t.ArtistDisplay = *artistDisplay
	}
	return t, nil
}

// UnregisterTrack deletes track id and cascades to downloads, artist
// links, playlist memberships, and likes.
func (c *Catalog) UnregisterTrack(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()
	if _, err := c.conn.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("unregister_track: %w", err)
	}
	c.publish(ActionUnlogTrack, id)
	return nil
}

// UnregisterDownload removes the download record only, preserving the
// track's metadata for searchable history.
func (c *Catalog) UnregisterDownload(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()
	if _, err := c.conn.ExecContext(ctx, `DELETE FROM downloads WHERE id = ?`, id); err != nil {
		return fmt.Errorf("unregister_download: %w", err)
	}
	c.publish(ActionUnlogDownload, id)
	return nil
}

// SetCustomMetadata overrides title/artist display fields; an empty
// string clears the override back to the canonical value.
func (c *Catalog) SetCustomMetadata(id string, title, artist *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	var titleArg, artistArg any
	if title != nil {
		titleArg = nullIfEmpty(*title)
	}
	if artist != nil {
		artistArg = nullIfEmpty(*artist)
	}

	if title != nil {
		if _, err := c.conn.ExecContext(ctx, `UPDATE tracks SET title_display = ? WHERE id = ?`, titleArg, id); err != nil {
			return fmt.Errorf("set_metadata: title: %w", err)
		}
	}
	if artist != nil {
		if _, err := c.conn.ExecContext(ctx, `UPDATE tracks SET artist_display = ? WHERE id = ?`, artistArg, id); err != nil {
			return fmt.Errorf("set_metadata: artist: %w", err)
		}
	}

	c.publish(ActionSetMetadata, map[string]string{"id": id})
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
