// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/whimsypingu/scuttle-go/internal/logging"
)

// AudioExtensions is the priority list the streamer also probes; the
// first existing extension for an id is the one actually served.
var AudioExtensions = []string{"wav", "opus", "mp3"}

// SweepOrphans removes download rows whose backing file is missing and
// logs (without deleting) files on disk with no matching download row,
// since an in-flight worker write may not have committed yet.
func (c *Catalog) SweepOrphans(downloadDir string) error {
	ids, err := c.downloadedIDs()
	if err != nil {
		return fmt.Errorf("sweep_orphans: %w", err)
	}

	have := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ext := FindAudioFile(downloadDir, id); ext == "" {
			logging.Warn().Str("id", id).Msg("sweep_orphans: download record has no backing file, unregistering")
			if err := c.UnregisterDownload(id); err != nil {
				logging.Warn().Err(err).Str("id", id).Msg("sweep_orphans: failed to unregister")
			}
		} else {
			have[id] = true
		}
	}

	entries, err := os.ReadDir(downloadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("sweep_orphans: reading %s: %w", downloadDir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if !have[id] {
			logging.Warn().Str("file", e.Name()).Msg("sweep_orphans: file on disk has no download record")
		}
	}

	return nil
}

func (c *Catalog) downloadedIDs() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := opCtx()
	defer cancel()

	rows, err := c.conn.QueryContext(ctx, `SELECT id FROM downloads`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindAudioFile returns the first existing <downloadDir>/<id>.<ext> in
// AudioExtensions priority order, or "" if none exist. Exported so the
// streamer can resolve the same file-naming contract the worker writes.
func FindAudioFile(downloadDir, id string) (path, ext string) {
	for _, e := range AudioExtensions {
		p := filepath.Join(downloadDir, id+"."+e)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, e
		}
	}
	return "", ""
}
