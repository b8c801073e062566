// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fetcher wraps an external search/download binary (C6): it runs
// the binary as a subprocess, parses its structured stdout, retries once
// with a self-update on failure, and applies rate limiting and circuit
// breaking around every invocation.
package fetcher

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/whimsypingu/scuttle-go/internal/catalog"
	"github.com/whimsypingu/scuttle-go/internal/events"
	"github.com/whimsypingu/scuttle-go/internal/job"
)

const (
	// EventSource labels every event this package emits.
	EventSource = "fetcher"

	ActionSearch   = "search"
	ActionDownload = "download"
	ActionStart    = "task_start"
	ActionFinish   = "task_finish"
	ActionError    = "error"
)

// Publisher delivers an event produced by a fetcher call.
type Publisher func(events.Event)

// Config tunes a Fetcher's binary invocation, rate limiting, and breaker.
type Config struct {
	// BinPath is the external search/download binary, e.g. "yt-dlp".
	BinPath string
	// DownloadDir is where the binary writes the raw audio file before
	// post-processing; the worker and streamer read from the same
	// directory once a name is committed there.
	DownloadDir string
	// SourceTag prefixes every id this Fetcher produces, e.g. "YT".
	SourceTag string
	// SearchLimit caps results per search call.
	SearchLimit int
	// Timeout bounds a single subprocess invocation.
	Timeout time.Duration
	// RatePerSecond throttles subprocess launches.
	RatePerSecond float64
	// BreakerTimeout is how long the circuit stays open after tripping.
	BreakerTimeout time.Duration
}

// Fetcher wraps the external binary with retry, rate limiting, and a
// circuit breaker. The zero value is not usable; construct with New.
type Fetcher struct {
	cfg     Config
	pub     Publisher
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// New constructs a Fetcher from cfg, publishing task lifecycle events via
// pub.
func New(cfg Config, pub Publisher) *Fetcher {
	settings := gobreaker.Settings{
		Name:    "fetcher",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &Fetcher{
		cfg:     cfg,
		pub:     pub,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (f *Fetcher) publish(action string, payload any) {
	if f.pub == nil {
		return
	}
	f.pub(events.New(EventSource, action, payload))
}

// prefixed applies the source tag to a native id crossing the Fetcher
// boundary, e.g. "abc123" -> "YT___abc123".
func (f *Fetcher) prefixed(nativeID string) string {
	return f.cfg.SourceTag + "___" + nativeID
}

// stripPrefix removes the source tag from an id, recovering the native id
// used to construct the source URL.
func (f *Fetcher) stripPrefix(id string) string {
	prefix := f.cfg.SourceTag + "___"
	if len(id) > len(prefix) && id[:len(prefix)] == prefix {
		return id[len(prefix):]
	}
	return id
}

// applyOverride copies non-empty override fields onto t.
func applyOverride(t catalog.Track, override *job.MetadataOverride) catalog.Track {
	if override == nil {
		return t
	}
	if override.Title != "" {
		t.Title = override.Title
	}
	if override.Artist != "" {
		t.Artist = override.Artist
	}
	return t
}

func (f *Fetcher) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if f.cfg.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, f.cfg.Timeout)
}
