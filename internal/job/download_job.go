// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package job defines DownloadJob, the ephemeral unit of work that flows
// from an HTTP handler or the playlist importer through the download queue
// to the download worker. It is never persisted.
package job

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// PlaylistUpdate is a post-commit playlist membership change applied after
// a job's track has been registered in the catalog.
type PlaylistUpdate struct {
	PlaylistID int  `json:"playlist_id" validate:"required"`
	Checked    bool `json:"checked"`
}

// MetadataOverride carries user-supplied field overrides applied to a
// fetched Track before it is committed; empty fields are ignored.
type MetadataOverride struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
}

// DownloadJob requests that a track be fetched and committed to the
// catalog, with optional post-commit side effects. Exactly one of ID or
// Query must be set; Validate enforces this.
type DownloadJob struct {
	ID    string `json:"id,omitempty" validate:"required_without=Query,excluded_with=Query"`
	Query string `json:"query,omitempty" validate:"required_without=ID,excluded_with=ID"`

	Metadata *MetadataOverride `json:"metadata,omitempty"`
	Updates  []PlaylistUpdate  `json:"updates,omitempty"`

	QueueFirst bool `json:"queue_first,omitempty"`
	QueueLast  bool `json:"queue_last,omitempty"`
}

// New constructs and validates a DownloadJob from its wire fields.
func New(id, query string, metadata *MetadataOverride, updates []PlaylistUpdate, queueFirst, queueLast bool) (DownloadJob, error) {
	j := DownloadJob{
		ID:         id,
		Query:      query,
		Metadata:   metadata,
		Updates:    updates,
		QueueFirst: queueFirst,
		QueueLast:  queueLast,
	}
	if err := j.Validate(); err != nil {
		return DownloadJob{}, err
	}
	return j, nil
}

// Validate enforces the id-XOR-query precondition and any nested field
// constraints. It is called at construction, not left to the queue.
func (j DownloadJob) Validate() error {
	if err := validate.Struct(j); err != nil {
		return fmt.Errorf("bad job: %w", err)
	}
	return nil
}

// Identifier returns the job's containment key: its ID if present,
// otherwise its Query. Used by the download queue's Contains check.
func (j DownloadJob) Identifier() string {
	if j.ID != "" {
		return j.ID
	}
	return j.Query
}

// IsShutdownSentinel reports whether this job is the sentinel pushed to
// unblock a parked worker during cooperative shutdown.
func (j DownloadJob) IsShutdownSentinel(sentinelQuery string) bool {
	return j.Query == sentinelQuery && j.ID == "" && sentinelQuery != ""
}
