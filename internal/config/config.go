// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates scuttle's runtime configuration.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration, loaded from defaults, an
// optional config.yaml, and environment variables (highest priority wins).
type Config struct {
	Root     RootConfig     `koanf:"root"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Fetcher  FetcherConfig  `koanf:"fetcher"`
	Post     PostConfig     `koanf:"post"`
	Streamer StreamerConfig `koanf:"streamer"`
	Worker   WorkerConfig   `koanf:"worker"`
	Super    SupervisorCfg  `koanf:"supervisor"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// RootConfig locates the on-disk file layout rooted at Dir.
type RootConfig struct {
	// Dir is the application root; the catalog and downloads live under
	// <Dir>/backend/data.
	Dir string `koanf:"dir"`
}

func (r RootConfig) DataDir() string {
	return r.Dir + "/backend/data"
}

func (r RootConfig) DownloadDir() string {
	return r.DataDir() + "/downloads"
}

func (r RootConfig) CatalogPath() string {
	return r.DataDir() + "/audio.db"
}

func (r RootConfig) SeedCSVPath() string {
	return r.DataDir() + "/seed.csv"
}

// ToolsDir is where --setup installs external binaries.
func (r RootConfig) ToolsDir() string {
	return r.Dir + "/tools"
}

// CatalogConfig tunes the DuckDB-backed catalog.
type CatalogConfig struct {
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// FetcherConfig configures the external search/download binary wrapper.
type FetcherConfig struct {
	// BinPath is the fetcher binary, overridden by PYTHON_BIN_PATH when the
	// fetcher is a script invoked through an interpreter.
	BinPath        string        `koanf:"bin_path"`
	SearchLimit    int           `koanf:"search_limit"`
	Timeout        time.Duration `koanf:"timeout"`
	SourceTag      string        `koanf:"source_tag"`
	RatePerSecond  float64       `koanf:"rate_per_second"`
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// PostConfig configures the audio post-processing pipeline.
type PostConfig struct {
	FFmpegBin   string `koanf:"ffmpeg_bin"`
	FFprobeBin  string `koanf:"ffprobe_bin"`
	TargetCodec string `koanf:"target_codec"`
}

// StreamerConfig configures the byte-range HTTP file server.
type StreamerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// WorkerConfig configures the download worker.
type WorkerConfig struct {
	// ShutdownSentinelQuery unblocks a parked queue.pop on stop.
	ShutdownSentinelQuery string `koanf:"shutdown_sentinel_query"`
}

// SupervisorCfg configures the process supervisor (C10).
type SupervisorCfg struct {
	ServerBin        string        `koanf:"server_bin"`
	ServerArgs       []string      `koanf:"server_args"`
	TunnelBin        string        `koanf:"tunnel_bin"`
	TunnelArgs       []string      `koanf:"tunnel_args"`
	PollInterval     time.Duration `koanf:"poll_interval"`
	IdleTimeout      time.Duration `koanf:"idle_timeout"`
	TerminateGrace   time.Duration `koanf:"terminate_grace"`
	WebhookURL       string        `koanf:"webhook_url"`
	ControlPort      int           `koanf:"control_port"`
	JSRuntimeBinPath string        `koanf:"js_runtime_bin_path"`
}

// LoggingConfig controls the zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate checks required fields with small, composable per-field checks
// so the caller gets one unambiguous error per invalid setting.
func (c *Config) Validate() error {
	if c.Root.Dir == "" {
		return fmt.Errorf("root.dir: must not be empty")
	}
	if c.Super.TunnelBin == "" {
		return fmt.Errorf("supervisor.tunnel_bin (TUNNEL_BIN_PATH): must not be empty")
	}
	if c.Fetcher.SearchLimit <= 0 {
		return fmt.Errorf("fetcher.search_limit: must be positive, got %d", c.Fetcher.SearchLimit)
	}
	if c.Fetcher.SourceTag == "" {
		return fmt.Errorf("fetcher.source_tag: must not be empty")
	}
	return nil
}
