// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package importer implements the playlist importer (C11): a registry of
// URL handlers, each answering whether it recognizes a URL and, if so,
// scraping it into a list of download queries with metadata. A failing
// handler is logged and contributes nothing; it never stops other
// handlers from being tried on the same URL in a future call.
package importer

import (
	"context"
	"fmt"

	"github.com/whimsypingu/scuttle-go/internal/job"
	"github.com/whimsypingu/scuttle-go/internal/logging"
)

// Item is one entry scraped from a playlist URL: a query to hand the
// fetcher plus any metadata overrides known ahead of the download.
type Item struct {
	Query    string
	Metadata *job.MetadataOverride
}

// Handler answers for one class of playlist URL.
type Handler interface {
	// Matches reports whether this handler recognizes url.
	Matches(url string) bool
	// Fetch scrapes url into an ordered list of items. It is the
	// out-of-scope collaborator named in spec §1 — scraping internals
	// live in the handler's own implementation, not in this package.
	Fetch(ctx context.Context, url string) ([]Item, error)
}

// Registry holds handlers in registration order and tries each in turn,
// a classical strategy-pattern dispatch.
type Registry struct {
	handlers []Handler
}

// NewRegistry creates an empty Registry. Register handlers with Register.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends handler to the registry. Order matters only in that
// the first matching handler for a URL is the one used.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// Import finds the first handler whose Matches(url) is true and runs its
// Fetch. If no handler matches, or the matching handler's Fetch fails,
// Import logs the failure and returns an empty slice — the playlist
// simply ends up with nothing pre-seeded rather than blocking playlist
// creation on a scraping error.
func (r *Registry) Import(ctx context.Context, url string) []Item {
	for _, h := range r.handlers {
		if !h.Matches(url) {
			continue
		}
		items, err := h.Fetch(ctx, url)
		if err != nil {
			logging.Warn().Err(err).Str("url", url).Msg("importer: handler failed")
			return nil
		}
		return items
	}
	logging.Warn().Str("url", url).Msg("importer: no handler matched url")
	return nil
}

// Jobs converts items into DownloadJobs that, once fetched, land as
// checked members of playlistID and at the tail of the play queue — the
// "create playlist with import_url" seeding contract from spec §4.11.
func Jobs(items []Item, playlistID int64) ([]job.DownloadJob, error) {
	jobs := make([]job.DownloadJob, 0, len(items))
	for _, it := range items {
		j, err := job.New("", it.Query, it.Metadata,
			[]job.PlaylistUpdate{{PlaylistID: int(playlistID), Checked: true}},
			false, true)
		if err != nil {
			return nil, fmt.Errorf("importer: building job for %q: %w", it.Query, err)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}
