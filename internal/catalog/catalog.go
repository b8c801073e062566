// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog is the relational store (C5): tracks, downloads, likes,
// playlists, playlist membership with fractional-position ordering, and a
// full-text search index. Every public method takes a single lock, so the
// underlying connection only ever sees serialized calls.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/whimsypingu/scuttle-go/internal/events"
	"github.com/whimsypingu/scuttle-go/internal/logging"
)

const (
	// EventSource labels every event this package emits.
	EventSource = "catalog"

	ActionLogTrack            = "log_track"
	ActionLogDownload         = "log_download"
	ActionUnlogTrack          = "unlog_track"
	ActionUnlogDownload       = "unlog_download"
	ActionSetMetadata         = "set_metadata"
	ActionToggleLike          = "toggle_like"
	ActionCreatePlaylist      = "create_playlist"
	ActionEditPlaylist        = "edit_playlist"
	ActionDeletePlaylist      = "delete_playlist"
	ActionUpdatePlaylists     = "update_playlists"
	ActionSearch              = "search"
	ActionFetchLikes          = "fetch_likes"
	ActionGetAllPlaylists     = "get_all_playlists"
	ActionGetPlaylistContent  = "get_playlist_content"
	ActionGetDownloadsContent = "get_downloads_content"
)

// Publisher delivers an event produced by a catalog mutation.
type Publisher func(events.Event)

// Catalog wraps a DuckDB connection. Every exported method takes mu first,
// so reads and writes alike are fully serialized; the underlying driver is
// assumed safe for a single in-flight statement at a time.
type Catalog struct {
	mu   sync.Mutex
	conn *sql.DB
	pub  Publisher
}

// Config locates the catalog's on-disk files and tunes the connection.
type Config struct {
	// Path is the database file, e.g. <root>/backend/data/audio.db.
	Path string
	// MaxMemory is DuckDB's max_memory setting, e.g. "2GB".
	MaxMemory string
}

// Open opens (creating if absent) the catalog database file, installs the
// fts extension, and creates the schema if it does not already exist.
func Open(cfg Config, pub Publisher) (*Catalog, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating catalog directory %s: %w", dir, err)
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}

	connStr := fmt.Sprintf(
		"%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, runtime.NumCPU(), maxMemory,
	)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	c := &Catalog{conn: conn, pub: pub}

	if err := c.initialize(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return c, nil
}

func (c *Catalog) initialize() error {
	if err := c.installExtensions(); err != nil {
		return err
	}
	if err := c.createTables(); err != nil {
		return err
	}
	if err := c.createIndexes(); err != nil {
		return err
	}
	return nil
}

// Close checkpoints and closes the underlying connection.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := c.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("catalog checkpoint before close failed")
	}
	return c.conn.Close()
}

func (c *Catalog) publish(action string, payload any) {
	if c.pub == nil {
		return
	}
	c.pub(events.New(EventSource, action, payload))
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
