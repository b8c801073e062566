// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads scuttle's configuration from defaults, an optional
// config.yaml, and environment variables, in that priority order.
//
// Most settings use the SCUTTLE_ prefix (e.g. SCUTTLE_FETCHER_TIMEOUT), but
// six legacy environment keys are bound directly without the prefix, since
// --setup writes them out that way for tools that source the env file
// independently of scuttle: DISCORD_WEBHOOK_URL, TUNNEL_BIN_PATH,
// PYTHON_BIN_PATH, FFMPEG_BIN_PATH, FFPROBE_BIN_PATH, JS_RUNTIME_BIN_PATH.
package config
