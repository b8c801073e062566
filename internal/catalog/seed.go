// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/whimsypingu/scuttle-go/internal/logging"
)

// SeedFromCSV populates the catalog from path if it has no tracks yet.
// Columns: track_id, track_name, popularity, duration, artist_names,
// artist_ids, with artist_names/artist_ids pipe-delimited for multi-value
// rows. Rows are registered as tracks only, without download records.
func (c *Catalog) SeedFromCSV(path string) error {
	empty, err := c.isEmpty()
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if !empty {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Info().Str("path", path).Msg("no seed csv found, skipping")
			return nil
		}
		return fmt.Errorf("seed: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("seed: read header: %w", err)
	}
	col := columnIndex(header)

	n := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("seed: read row %d: %w", n, err)
		}

		t, ok := rowToTrack(row, col)
		if !ok {
			logging.Warn().Int("row", n).Msg("seed: skipping malformed row")
			continue
		}
		if err := c.RegisterTrack(t); err != nil {
			logging.Warn().Err(err).Str("id", t.ID).Msg("seed: failed to register track")
			continue
		}
		n++
	}

	logging.Info().Int("rows", n).Str("path", path).Msg("seeded catalog from csv")
	return c.RebuildSearchIndex()
}

func (c *Catalog) isEmpty() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	var count int
	if err := c.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func rowToTrack(row []string, col map[string]int) (Track, bool) {
	id, ok := field(row, col, "track_id")
	if !ok || id == "" {
		return Track{}, false
	}
	name, _ := field(row, col, "track_name")
	durationStr, _ := field(row, col, "duration")
	artistNames, _ := field(row, col, "artist_names")

	duration, _ := strconv.ParseFloat(durationStr, 64)
	artist := strings.ReplaceAll(artistNames, "|", "; ")

	return Track{
		ID:       "SEED___" + id,
		Title:    name,
		Artist:   artist,
		Duration: duration,
	}, true
}

func field(row []string, col map[string]int, name string) (string, bool) {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return "", false
	}
	return row[i], true
}

// SeedCSVPathFor derives the default seed.csv location next to a schema
// or database file's parent directory.
func SeedCSVPathFor(dbDir string) string {
	return filepath.Join(dbDir, "seed.csv")
}
