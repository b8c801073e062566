// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package postprocess

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	"github.com/goccy/go-json"

	"github.com/whimsypingu/scuttle-go/internal/logging"
)

// statsBlob matches the JSON object the loudness filter embeds in its
// stderr output, which is otherwise full of human-readable progress
// lines.
var statsBlob = regexp.MustCompile(`(?s)\{.*\}`)

// trimSilence strips leading and trailing silence via ffmpeg's silenceremove
// filter.
func (p *Pipeline) trimSilence(ctx context.Context, path string) error {
	return p.runFilter(ctx, path, "silenceremove=start_periods=1:stop_periods=1:start_threshold=-50dB:stop_threshold=-50dB")
}

// loudnessNormalize runs ffmpeg's two-pass loudnorm filter: a first pass
// measures the file's loudness stats (reported as a JSON blob in stderr),
// and a second pass applies normalization using those measured values.
func (p *Pipeline) loudnessNormalize(ctx context.Context, path string) error {
	measure := "loudnorm=I=-16:TP=-1.5:LRA=11:print_format=json"
	stderr, err := p.runCapture(ctx, []string{"-hide_banner", "-i", path, "-af", measure, "-f", "null", "-"})
	if err != nil {
		return fmt.Errorf("loudness measure pass: %w", err)
	}

	match := statsBlob.Find(stderr)
	if match == nil {
		return fmt.Errorf("loudness measure pass: no stats blob in stderr")
	}

	var stats loudnormStats
	if err := json.Unmarshal(match, &stats); err != nil {
		return fmt.Errorf("loudness measure pass: parsing stats: %w", err)
	}

	apply := fmt.Sprintf(
		"loudnorm=I=-16:TP=-1.5:LRA=11:measured_I=%s:measured_TP=%s:measured_LRA=%s:measured_thresh=%s:offset=%s:linear=true",
		stats.InputI, stats.InputTP, stats.InputLRA, stats.InputThresh, stats.TargetOffset,
	)
	return p.runFilter(ctx, path, apply)
}

// loudnormStats mirrors ffmpeg's loudnorm print_format=json output.
type loudnormStats struct {
	InputI       string `json:"input_i"`
	InputTP      string `json:"input_tp"`
	InputLRA     string `json:"input_lra"`
	InputThresh  string `json:"input_thresh"`
	TargetOffset string `json:"target_offset"`
}

// compress re-encodes the file to the configured target codec.
func (p *Pipeline) compress(ctx context.Context, path string) error {
	ext := p.cfg.TargetCodec
	if ext == "" {
		ext = "opus"
	}
	tmp := tmpPath(path, ext)

	args := []string{"-y", "-i", path, "-c:a", codecNameFor(ext), tmp}
	if _, err := p.runCapture(ctx, args); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("compress to %s: %w", ext, err)
	}

	return atomicReplaceWithExt(path, tmp, ext)
}

// runFilter applies an ffmpeg audio filter in place: writes to a temp
// file then atomically replaces path, preserving path's extension.
func (p *Pipeline) runFilter(ctx context.Context, path, filter string) error {
	tmp := tmpPath(path, filepath.Ext(path))
	args := []string{"-y", "-i", path, "-af", filter, tmp}
	if _, err := p.runCapture(ctx, args); err != nil {
		os.Remove(tmp)
		return err
	}
	return atomicReplace(path, tmp)
}

func (p *Pipeline) runCapture(ctx context.Context, args []string) ([]byte, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if p.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	bin := p.cfg.FFmpegBin
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.CommandContext(runCtx, bin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logging.Warn().Err(err).Str("bin", bin).Str("stderr", stderr.String()).Msg("ffmpeg invocation failed")
		return stderr.Bytes(), fmt.Errorf("%s: %w", bin, err)
	}
	return stderr.Bytes(), nil
}

func tmpPath(path, ext string) string {
	ext = trimLeadingDot(ext)
	return path + ".tmp." + ext
}

func trimLeadingDot(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}

func atomicReplace(path, tmp string) error {
	return os.Rename(tmp, path)
}

// atomicReplaceWithExt replaces path (whose extension may differ from
// ext, e.g. wav -> opus) with tmp, renaming to the new extension and
// removing the stale original.
func atomicReplaceWithExt(path, tmp, ext string) error {
	newPath := withExt(path, ext)
	if err := os.Rename(tmp, newPath); err != nil {
		return err
	}
	if newPath != path {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.Warn().Err(err).Str("path", path).Msg("failed to remove pre-compression file")
		}
	}
	return nil
}

func withExt(path, ext string) string {
	base := path[:len(path)-len(filepath.Ext(path))]
	return base + "." + trimLeadingDot(ext)
}

func codecNameFor(ext string) string {
	switch ext {
	case "opus":
		return "libopus"
	case "mp3":
		return "libmp3lame"
	default:
		return "copy"
	}
}
