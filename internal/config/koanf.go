// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config files searched in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// ConfigPathEnvVar overrides the search path entirely.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Root: RootConfig{Dir: "."},
		Catalog: CatalogConfig{
			MaxMemory: "2GB",
			Threads:   0,
		},
		Fetcher: FetcherConfig{
			BinPath:        "yt-dlp",
			SearchLimit:    10,
			Timeout:        2 * time.Minute,
			SourceTag:      "YT",
			RatePerSecond:  0.5,
			BreakerTimeout: 30 * time.Second,
		},
		Post: PostConfig{
			FFmpegBin:   "ffmpeg",
			FFprobeBin:  "ffprobe",
			TargetCodec: "opus",
		},
		Streamer: StreamerConfig{
			Host: "127.0.0.1",
			Port: 8321,
		},
		Worker: WorkerConfig{
			ShutdownSentinelQuery: "__shutdown__",
		},
		Super: SupervisorCfg{
			ServerBin:      "scuttle-server",
			TunnelBin:      "cloudflared",
			TunnelArgs:     []string{"tunnel", "--url", "http://localhost:8321"},
			PollInterval:   60 * time.Second,
			IdleTimeout:    3 * time.Hour,
			TerminateGrace: 5 * time.Second,
			ControlPort:    8322,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the Config by layering defaults, an optional YAML config file,
// and environment variables, in that order of increasing precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	for _, path := range configPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		break
	}

	if err := k.Load(env.Provider("SCUTTLE_", ".", envKeyMap), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	// Legacy, spec-mandated env keys that don't follow the SCUTTLE_ prefix.
	if err := k.Load(env.ProviderWithValue("", ".", legacyEnvMap), nil); err != nil {
		return nil, fmt.Errorf("loading legacy environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configPaths() []string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return []string{p}
	}
	return DefaultConfigPaths
}

// envKeyMap lowercases and dot-separates SCUTTLE_FOO_BAR -> foo.bar.
func envKeyMap(s string) string {
	return flattenEnvKey(s, "SCUTTLE_")
}

// legacyEnvMap binds a fixed set of environment keys that are produced by
// --setup and don't fit the SCUTTLE_ prefix convention.
func legacyEnvMap(key, value string) (string, interface{}) {
	switch key {
	case "DISCORD_WEBHOOK_URL":
		return "supervisor.webhook_url", value
	case "TUNNEL_BIN_PATH":
		return "supervisor.tunnel_bin", value
	case "JS_RUNTIME_BIN_PATH":
		return "supervisor.js_runtime_bin_path", value
	case "FFMPEG_BIN_PATH":
		return "post.ffmpeg_bin", value
	case "FFPROBE_BIN_PATH":
		return "post.ffprobe_bin", value
	case "PYTHON_BIN_PATH":
		return "fetcher.bin_path", value
	default:
		return "", nil
	}
}
