// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package fetcher

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sony/gobreaker/v2"

	"github.com/whimsypingu/scuttle-go/internal/catalog"
	"github.com/whimsypingu/scuttle-go/internal/job"
)

// rawAudioExt is the format yt-dlp's own --audio-format postprocessor
// extracts to; the pipeline's post-processor then reads this file and
// writes the final compressed output alongside it.
const rawAudioExt = "wav"

// Search runs the binary in search mode and returns up to limit tracks
// matching q. Returns an empty slice, not an error, on any terminal
// failure — callers treat "no results" and "search broke" the same way.
func (f *Fetcher) Search(ctx context.Context, q string, limit int) []catalog.Track {
	if limit <= 0 {
		limit = f.cfg.SearchLimit
	}

	f.publish(ActionStart, map[string]any{"op": "search", "query": q})
	defer f.publish(ActionFinish, map[string]any{"op": "search", "query": q})

	args := []string{
		"--print", searchPrintTemplate(),
		"--skip-download",
		"--no-warnings",
		fmt.Sprintf("ytsearch%d:%s", limit, q),
	}

	out, err := f.breaker.Execute(func() ([]byte, error) {
		stdout, runErr := f.runWithRetry(ctx, args...)
		return []byte(stdout), runErr
	})
	if err != nil {
		f.publish(ActionError, map[string]any{"op": "search", "error": err.Error()})
		return nil
	}

	records := parseRecords(string(out))
	tracks := make([]catalog.Track, 0, len(records))
	for _, r := range records {
		tracks = append(tracks, catalog.Track{
			ID:       f.prefixed(r.ID),
			Title:    r.Title,
			Artist:   r.Uploader,
			Duration: r.Duration,
		})
	}

	f.publish(ActionSearch, map[string]any{"query": q, "results": len(tracks)})
	return tracks
}

// DownloadByID fetches id, applying override to the resulting Track, and
// hands the written file to the post-processing pipeline before
// returning. The after_move print template guarantees the printed line
// only appears once the file is durably on disk.
func (f *Fetcher) DownloadByID(ctx context.Context, id string, override *job.MetadataOverride, postProcess func(path string) error) (catalog.Track, error) {
	f.publish(ActionStart, map[string]any{"op": "download", "id": id})
	defer f.publish(ActionFinish, map[string]any{"op": "download", "id": id})

	nativeID := f.stripPrefix(id)
	url := sourceURL(nativeID)
	outputPath := filepath.Join(f.cfg.DownloadDir, id+".%(ext)s")

	args := []string{
		"-x", "--audio-format", rawAudioExt,
		"-o", outputPath,
		"--print", "after_move:" + searchPrintTemplate(),
		url,
	}

	out, err := f.breaker.Execute(func() ([]byte, error) {
		stdout, runErr := f.runWithRetry(ctx, args...)
		return []byte(stdout), runErr
	})
	if err != nil {
		f.publish(ActionError, map[string]any{"op": "download", "id": id, "error": err.Error()})
		return catalog.Track{}, fmt.Errorf("download_by_id %s: %w", id, err)
	}

	records := parseRecords(string(out))
	if len(records) == 0 {
		err := fmt.Errorf("download_by_id %s: no output line after download", id)
		f.publish(ActionError, map[string]any{"op": "download", "id": id, "error": err.Error()})
		return catalog.Track{}, err
	}
	r := records[0]

	track := catalog.Track{
		ID:       f.prefixed(r.ID),
		Title:    r.Title,
		Artist:   r.Uploader,
		Duration: r.Duration,
	}
	track = applyOverride(track, override)

	if postProcess != nil {
		if err := postProcess(f.rawPath(track.ID)); err != nil {
			f.publish(ActionError, map[string]any{"op": "postprocess", "id": track.ID, "error": err.Error()})
			return catalog.Track{}, fmt.Errorf("post-processing %s: %w", track.ID, err)
		}
	}

	f.publish(ActionDownload, track)
	return track, nil
}

// DownloadByQuery searches for q and downloads the top result, or returns
// ErrNoResults if the search came back empty.
func (f *Fetcher) DownloadByQuery(ctx context.Context, q string, override *job.MetadataOverride, postProcess func(path string) error) (catalog.Track, error) {
	results := f.Search(ctx, q, 1)
	if len(results) == 0 {
		return catalog.Track{}, ErrNoResults
	}
	return f.DownloadByID(ctx, results[0].ID, override, postProcess)
}

// sourceURL reconstructs the source URL from a native (un-prefixed) id.
func sourceURL(nativeID string) string {
	return "https://www.youtube.com/watch?v=" + nativeID
}

// rawPath is the file the binary actually wrote, which the post-processing
// pipeline reads and overwrites in place.
func (f *Fetcher) rawPath(id string) string {
	return filepath.Join(f.cfg.DownloadDir, id+"."+rawAudioExt)
}

// IsBreakerOpen reports whether the circuit breaker is currently refusing
// calls, useful for worker-side backoff decisions.
func (f *Fetcher) IsBreakerOpen() bool {
	return f.breaker.State() == gobreaker.StateOpen
}
