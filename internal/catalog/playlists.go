// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// CreatePlaylist inserts a new playlist row and emits create_playlist.
func (c *Catalog) CreatePlaylist(name string) (Playlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	var p Playlist
	row := c.conn.QueryRowContext(ctx, `
		INSERT INTO playlists (name) VALUES (?) RETURNING id, name, created_at
	`, name)
	if err := row.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
		return Playlist{}, fmt.Errorf("create_playlist: %w", err)
	}

	c.publish(ActionCreatePlaylist, p)
	return p, nil
}

// EditPlaylist renames a playlist.
func (c *Catalog) EditPlaylist(id int64, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()
	if _, err := c.conn.ExecContext(ctx, `UPDATE playlists SET name = ? WHERE id = ?`, name, id); err != nil {
		return fmt.Errorf("edit_playlist: %w", err)
	}
	c.publish(ActionEditPlaylist, Playlist{ID: id, Name: name})
	return nil
}

// DeletePlaylist removes a playlist and cascades to playlist_tracks.
func (c *Catalog) DeletePlaylist(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()
	if _, err := c.conn.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete_playlist: %w", err)
	}
	c.publish(ActionDeletePlaylist, id)
	return nil
}

// UpdateTrackPlaylists applies each membership update: checked=true
// inserts the track at the tail (MAX(position)+1), ignoring the insert if
// already present; checked=false deletes the row.
func (c *Catalog) UpdateTrackPlaylists(trackID string, updates []PlaylistTrackUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	for _, u := range updates {
		if u.Checked {
			var maxPos sql.NullFloat64
			row := c.conn.QueryRowContext(ctx, `SELECT MAX(position) FROM playlist_tracks WHERE playlist_id = ?`, u.PlaylistID)
			if err := row.Scan(&maxPos); err != nil {
				return fmt.Errorf("update_playlists: max position: %w", err)
			}
			next := 1.0
			if maxPos.Valid {
				next = maxPos.Float64 + 1
			}
			if _, err := c.conn.ExecContext(ctx, `
				INSERT INTO playlist_tracks (playlist_id, track_id, position)
				VALUES (?, ?, ?) ON CONFLICT DO NOTHING
			`, u.PlaylistID, trackID, next); err != nil {
				return fmt.Errorf("update_playlists: insert: %w", err)
			}
		} else {
			if _, err := c.conn.ExecContext(ctx, `
				DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?
			`, u.PlaylistID, trackID); err != nil {
				return fmt.Errorf("update_playlists: delete: %w", err)
			}
		}
	}

	c.publish(ActionUpdatePlaylists, map[string]any{"track_id": trackID, "updates": updates})
	return nil
}

// ReorderPlaylist moves the item at index from to index to within
// playlist's ordered track list, recomputing only the moved row's
// fractional position.
func (c *Catalog) ReorderPlaylist(playlistID int64, from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	ids, positions, err := c.orderedTrackIDs(ctx, `
		SELECT track_id, position FROM playlist_tracks WHERE playlist_id = ? ORDER BY position ASC
	`, playlistID)
	if err != nil {
		return fmt.Errorf("reorder: %w", err)
	}

	newPos, trackID, err := computeReorder(ids, positions, from, to)
	if err != nil {
		return err
	}

	if _, err := c.conn.ExecContext(ctx, `
		UPDATE playlist_tracks SET position = ? WHERE playlist_id = ? AND track_id = ?
	`, newPos, playlistID, trackID); err != nil {
		return fmt.Errorf("reorder: update: %w", err)
	}

	return nil
}

// ToggleLike removes id from the liked-tracks list if present, else
// inserts it at the head (MIN(position) - 1).
func (c *Catalog) ToggleLike(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	var exists bool
	row := c.conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM likes WHERE track_id = ?)`, id)
	if err := row.Scan(&exists); err != nil {
		return fmt.Errorf("toggle_like: check: %w", err)
	}

	if exists {
		if _, err := c.conn.ExecContext(ctx, `DELETE FROM likes WHERE track_id = ?`, id); err != nil {
			return fmt.Errorf("toggle_like: delete: %w", err)
		}
	} else {
		var minPos sql.NullFloat64
		if err := c.conn.QueryRowContext(ctx, `SELECT MIN(position) FROM likes`).Scan(&minPos); err != nil {
			return fmt.Errorf("toggle_like: min position: %w", err)
		}
		next := -1.0
		if minPos.Valid {
			next = minPos.Float64 - 1
		}
		if _, err := c.conn.ExecContext(ctx, `INSERT INTO likes (track_id, position) VALUES (?, ?)`, id, next); err != nil {
			return fmt.Errorf("toggle_like: insert: %w", err)
		}
	}

	c.publish(ActionToggleLike, id)
	return nil
}

// ReorderLikes moves the item at index from to index to within the liked
// tracks list, using the same fractional-position scheme as playlists.
func (c *Catalog) ReorderLikes(from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	ids, positions, err := c.orderedTrackIDs(ctx, `SELECT track_id, position FROM likes ORDER BY position ASC`)
	if err != nil {
		return fmt.Errorf("reorder likes: %w", err)
	}

	newPos, trackID, err := computeReorder(ids, positions, from, to)
	if err != nil {
		return err
	}

	if _, err := c.conn.ExecContext(ctx, `UPDATE likes SET position = ? WHERE track_id = ?`, newPos, trackID); err != nil {
		return fmt.Errorf("reorder likes: update: %w", err)
	}
	return nil
}

func (c *Catalog) orderedTrackIDs(ctx context.Context, query string, args ...any) ([]string, []float64, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var ids []string
	var positions []float64
	for rows.Next() {
		var id string
		var pos float64
		if err := rows.Scan(&id, &pos); err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		positions = append(positions, pos)
	}
	return ids, positions, rows.Err()
}

// computeReorder implements the fractional-positioning invariant: remove
// the item at from, then compute its new position from the neighbours at
// to in the remaining list (head -> first.pos-1, tail -> last.pos+1,
// middle -> midpoint).
func computeReorder(ids []string, positions []float64, from, to int) (float64, string, error) {
	n := len(ids)
	if from < 0 || from >= n || to < 0 || to >= n {
		return 0, "", ErrInvalidReorder
	}

	movedID := ids[from]
	remainingPos := make([]float64, 0, n-1)
	for i, pos := range positions {
		if i == from {
			continue
		}
		remainingPos = append(remainingPos, pos)
	}

	var newPos float64
	switch {
	case to == 0:
		newPos = remainingPos[0] - 1
	case to >= len(remainingPos):
		newPos = remainingPos[len(remainingPos)-1] + 1
	default:
		newPos = (remainingPos[to-1] + remainingPos[to]) / 2
	}

	return newPos, movedID, nil
}
