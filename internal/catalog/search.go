// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const searchResultCap = 30

// Search returns downloaded tracks matching q. An empty q returns all
// downloaded tracks in reverse-chronological download order; otherwise q
// is tokenized on whitespace, each token gets a trailing prefix wildcard,
// and results are ranked by bm25 scaled by per-row preference weights.
func (c *Catalog) Search(q string) ([]SearchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	var out []SearchResult
	var err error
	if strings.TrimSpace(q) == "" {
		out, err = c.searchAllDownloaded(ctx)
	} else {
		out, err = c.searchFTS(ctx, q)
	}
	if err != nil {
		return nil, err
	}

	c.publish(ActionSearch, map[string]any{"query": q, "results": out})
	return out, nil
}

func (c *Catalog) searchAllDownloaded(ctx context.Context) ([]SearchResult, error) {
	rows, err := c.conn.QueryContext(ctx, `
		SELECT t.id, t.title, t.artist, t.duration, t.title_display, t.artist_display
		FROM tracks t
		JOIN downloads d ON d.id = t.id
		ORDER BY d.downloaded_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()
	return scanSearchResults(rows)
}

func (c *Catalog) searchFTS(ctx context.Context, q string) ([]SearchResult, error) {
	query := ftsQuery(q)

	// title.pref_weight is the track row's own weight; max(artist.pref_weight)
	// is the best-weighted artist among the track's (possibly several)
	// linked artists, per spec §4.5's ranking formula.
	rows, err := c.conn.QueryContext(ctx, `
		WITH scored AS (
			SELECT t.id, t.title, t.artist, t.duration, t.title_display, t.artist_display,
			       t.pref_weight AS title_weight,
			       COALESCE(MAX(a.pref_weight), 1.0) AS artist_weight,
			       fts_main_tracks.match_bm25(t.id, ?, fields := 'title') AS title_score,
			       fts_main_tracks.match_bm25(t.id, ?, fields := 'artist') AS artist_score
			FROM tracks t
			JOIN downloads d ON d.id = t.id
			LEFT JOIN track_artists ta ON ta.track_id = t.id
			LEFT JOIN artists a ON a.id = ta.artist_id
			GROUP BY t.id, t.title, t.artist, t.duration, t.title_display, t.artist_display, t.pref_weight
		)
		SELECT id, title, artist, duration, title_display, artist_display
		FROM scored
		WHERE title_score IS NOT NULL OR artist_score IS NOT NULL
		ORDER BY (COALESCE(title_score, 0) * 1.0 + COALESCE(artist_score, 0) * 1.5)
		         * ln_boost(title_weight) * ln_boost(artist_weight) DESC
		LIMIT ?
	`, query, query, searchResultCap)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()
	return scanSearchResults(rows)
}

// ftsQuery tokenizes on whitespace and appends a prefix wildcard to each
// token, matching DuckDB fts's simple query syntax.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	for i, f := range fields {
		fields[i] = f + "*"
	}
	return strings.Join(fields, " ")
}

func scanSearchResults(rows *sql.Rows) ([]SearchResult, error) {
	var out []SearchResult
	for rows.Next() {
		var sr SearchResult
		var titleDisplay, artistDisplay *string
		if err := rows.Scan(&sr.ID, &sr.Title, &sr.Artist, &sr.Duration, &titleDisplay, &artistDisplay); err != nil {
			return nil, fmt.Errorf("search: scan: %w", err)
		}
		if titleDisplay != nil {
			sr.TitleDisplay = *titleDisplay
		}
		if artistDisplay != nil {
			sr.ArtistDisplay = *artistDisplay
		}
		sr.Downloaded = true
		out = append(out, sr)
	}
	return out, rows.Err()
}

// RebuildSearchIndex drops and repopulates the fts index over titles and
// artists. Callable after bulk mutations (seeding, batch imports) to bring
// the index back in sync.
func (c *Catalog) RebuildSearchIndex() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()
	return c.rebuildSearchIndexLocked(ctx)
}

func (c *Catalog) rebuildSearchIndexLocked(ctx context.Context) error {
	if _, err := c.conn.ExecContext(ctx, `
		PRAGMA create_fts_index('tracks', 'id', 'title', 'artist', overwrite=1)
	`); err != nil {
		return fmt.Errorf("rebuild_search_index: %w", err)
	}
	return nil
}
