// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package streamer implements the byte-range file server (C9): given a
// track id, it resolves <download_dir>/<id>.<ext> by probing the same
// extension priority list the worker writes against, and serves it as a
// range-capable file response.
package streamer

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/whimsypingu/scuttle-go/internal/catalog"
	"github.com/whimsypingu/scuttle-go/internal/logging"
)

// Streamer resolves and serves downloaded audio files.
type Streamer struct {
	downloadDir string
}

// New constructs a Streamer that serves files out of downloadDir.
func New(downloadDir string) *Streamer {
	return &Streamer{downloadDir: downloadDir}
}

// Routes mounts GET /stream/{id} on r.
func (s *Streamer) Routes(r chi.Router) {
	r.Get("/stream/{id}", s.serveTrack)
}

// serveTrack resolves the id's audio file and serves it with byte-range
// support via http.ServeContent; a missing file is a 404, not an error —
// the client may simply be asking for a track that was never downloaded.
func (s *Streamer) serveTrack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	path, ext := catalog.FindAudioFile(s.downloadDir, id)
	if path == "" {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		logging.Error().Err(err).Str("id", id).Str("path", path).Msg("streamer: failed to open audio file")
		http.Error(w, "failed to open audio file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logging.Error().Err(err).Str("id", id).Msg("streamer: failed to stat audio file")
		http.Error(w, "failed to stat audio file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType(ext))
	http.ServeContent(w, r, id+"."+ext, info.ModTime(), f)
}

// contentType maps the audio extensions the worker writes to their MIME
// type; unrecognized extensions fall back to a generic binary stream.
func contentType(ext string) string {
	switch ext {
	case "wav":
		return "audio/wav"
	case "opus":
		return "audio/opus"
	case "mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}
