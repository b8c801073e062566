// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package worker implements the download worker (C8): a single
// cooperative loop that drains the download queue, dispatches to the
// fetcher, commits results to the catalog, and applies post-commit
// play-queue placement.
package worker

import (
	"context"
	"fmt"

	"github.com/whimsypingu/scuttle-go/internal/catalog"
	"github.com/whimsypingu/scuttle-go/internal/job"
	"github.com/whimsypingu/scuttle-go/internal/logging"
	"github.com/whimsypingu/scuttle-go/internal/postprocess"
	"github.com/whimsypingu/scuttle-go/internal/queue"
)

// Fetcher is the subset of *fetcher.Fetcher the worker depends on.
type Fetcher interface {
	DownloadByID(ctx context.Context, id string, override *job.MetadataOverride, postProcess func(path string) error) (catalog.Track, error)
	DownloadByQuery(ctx context.Context, q string, override *job.MetadataOverride, postProcess func(path string) error) (catalog.Track, error)
}

// Catalog is the subset of *catalog.Catalog the worker depends on.
type Catalog interface {
	RegisterTrack(t catalog.Track) error
	RegisterDownload(id string) (catalog.Track, error)
	UpdateTrackPlaylists(trackID string, updates []catalog.PlaylistTrackUpdate) error
}

// Worker drains the download queue, one job at a time, forever until
// shut down.
type Worker struct {
	downloadQueue *queue.DownloadQueue
	playQueue     *queue.PlayQueue
	fetcher       Fetcher
	catalog       Catalog
	pipeline      *postprocess.Pipeline
	sentinelQuery string
}

// Config wires a Worker's collaborators.
type Config struct {
	DownloadQueue *queue.DownloadQueue
	PlayQueue     *queue.PlayQueue
	Fetcher       Fetcher
	Catalog       Catalog
	Pipeline      *postprocess.Pipeline
	// SentinelQuery is the query string used to unblock a parked worker
	// during cooperative shutdown; it is never a real download target.
	SentinelQuery string
}

// New constructs a Worker from cfg.
func New(cfg Config) *Worker {
	return &Worker{
		downloadQueue: cfg.DownloadQueue,
		playQueue:     cfg.PlayQueue,
		fetcher:       cfg.Fetcher,
		catalog:       cfg.Catalog,
		pipeline:      cfg.Pipeline,
		sentinelQuery: cfg.SentinelQuery,
	}
}

// Run loops until ctx is cancelled or a shutdown sentinel job is
// dequeued. services.WorkerService adapts it to suture's Serve method so it
// can run under a supervision tree.
func (w *Worker) Run(ctx context.Context) error {
	for {
		j, ok := w.downloadQueue.Pop()
		if !ok {
			return nil // queue closed
		}
		if j.IsShutdownSentinel(w.sentinelQuery) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		w.handle(ctx, j)
	}
}

// handle dispatches one job; any error is logged with full context and
// the loop continues rather than aborting the worker.
func (w *Worker) handle(ctx context.Context, j job.DownloadJob) {
	track, err := w.fetch(ctx, j)
	if err != nil {
		logging.Error().Err(err).Str("identifier", j.Identifier()).Msg("download job failed")
		return
	}

	if err := w.commit(track, j); err != nil {
		logging.Error().Err(err).Str("id", track.ID).Msg("failed to commit downloaded track")
		return
	}

	if j.QueueFirst {
		// spec's worker pseudocode queues the new track next-after-current
		// (insert_at position 1), not as the new outright head.
		w.playQueue.InsertNext(track.ID)
	}
	if j.QueueLast {
		w.playQueue.Push(track.ID)
	}
}

func (w *Worker) fetch(ctx context.Context, j job.DownloadJob) (catalog.Track, error) {
	postProcess := func(path string) error {
		if w.pipeline == nil {
			return nil
		}
		return w.pipeline.Run(ctx, path)
	}

	switch {
	case j.ID != "":
		return w.fetcher.DownloadByID(ctx, j.ID, j.Metadata, postProcess)
	case j.Query != "":
		return w.fetcher.DownloadByQuery(ctx, j.Query, j.Metadata, postProcess)
	default:
		return catalog.Track{}, fmt.Errorf("job has neither id nor query: %v", j)
	}
}

func (w *Worker) commit(track catalog.Track, j job.DownloadJob) error {
	if err := w.catalog.RegisterTrack(track); err != nil {
		return fmt.Errorf("register_track: %w", err)
	}
	if _, err := w.catalog.RegisterDownload(track.ID); err != nil {
		return fmt.Errorf("register_download: %w", err)
	}
	if len(j.Updates) > 0 {
		updates := make([]catalog.PlaylistTrackUpdate, len(j.Updates))
		for i, u := range j.Updates {
			updates[i] = catalog.PlaylistTrackUpdate{PlaylistID: int64(u.PlaylistID), Checked: u.Checked}
		}
		if err := w.catalog.UpdateTrackPlaylists(track.ID, updates); err != nil {
			return fmt.Errorf("update_track_playlists: %w", err)
		}
	}
	return nil
}

// Shutdown pushes the sentinel job that unblocks a parked Pop, letting
// Run observe it and return. Shutdown is cooperative: in-flight work is
// not aborted.
func (w *Worker) Shutdown() error {
	j, err := job.New("", w.sentinelQuery, nil, nil, false, false)
	if err != nil {
		return fmt.Errorf("building shutdown sentinel: %w", err)
	}
	w.downloadQueue.Push(j)
	return nil
}
