// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import "fmt"

// FetchLikes returns the liked tracks in position order.
func (c *Catalog) FetchLikes() ([]Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	rows, err := c.conn.QueryContext(ctx, `
		SELECT t.id, t.title, t.artist, t.duration, t.title_display, t.artist_display
		FROM likes l JOIN tracks t ON t.id = l.track_id
		ORDER BY l.position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("fetch_likes: %w", err)
	}
	defer rows.Close()
	out, err := scanTracks(rows)
	if err != nil {
		return nil, err
	}
	c.publish(ActionFetchLikes, out)
	return out, nil
}

// GetAllPlaylists lists every playlist.
func (c *Catalog) GetAllPlaylists() ([]Playlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	rows, err := c.conn.QueryContext(ctx, `SELECT id, name, created_at FROM playlists ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("get_all_playlists: %w", err)
	}
	defer rows.Close()

	var out []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("get_all_playlists: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	c.publish(ActionGetAllPlaylists, out)
	return out, nil
}

// GetPlaylistContent returns a playlist's tracks in position order.
func (c *Catalog) GetPlaylistContent(playlistID int64) ([]Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	rows, err := c.conn.QueryContext(ctx, `
		SELECT t.id, t.title, t.artist, t.duration, t.title_display, t.artist_display
		FROM playlist_tracks pt JOIN tracks t ON t.id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position ASC
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("get_playlist_content: %w", err)
	}
	defer rows.Close()
	out, err := scanTracks(rows)
	if err != nil {
		return nil, err
	}
	c.publish(ActionGetPlaylistContent, map[string]any{"playlist_id": playlistID, "content": out})
	return out, nil
}

// GetDownloadsContent returns every downloaded track, most recent first.
func (c *Catalog) GetDownloadsContent() ([]Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	rows, err := c.conn.QueryContext(ctx, `
		SELECT t.id, t.title, t.artist, t.duration, t.title_display, t.artist_display
		FROM tracks t JOIN downloads d ON d.id = t.id
		ORDER BY d.downloaded_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("get_downloads_content: %w", err)
	}
	defer rows.Close()
	out, err := scanTracks(rows)
	if err != nil {
		return nil, err
	}
	c.publish(ActionGetDownloadsContent, out)
	return out, nil
}

func scanTracks(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]Track, error) {
	var out []Track
	for rows.Next() {
		var t Track
		var titleDisplay, artistDisplay *string
		if err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.Duration, &titleDisplay, &artistDisplay); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		if titleDisplay != nil {
			t.TitleDisplay = *titleDisplay
		}
		if artistDisplay != nil {
			t.ArtistDisplay = *artistDisplay
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
