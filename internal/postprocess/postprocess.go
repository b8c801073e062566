// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package postprocess implements the ordered audio transform pipeline
// (C7): trim_silence, loudness_normalize, compress, each a pure
// file-to-file step that reads p, writes p.tmp.<ext>, and atomically
// replaces p. A failing transform leaves the input untouched.
package postprocess

import (
	"context"
	"time"
)

// Config configures the external transform binary and the default
// pipeline's target format.
type Config struct {
	// FFmpegBin is the transform binary, e.g. "ffmpeg".
	FFmpegBin string
	// FFprobeBin is stored but no transform runs it; loudness-normalize
	// reads its two-pass stats from FFmpegBin's stderr.
	FFprobeBin string
	// TargetCodec is the compress step's output codec, e.g. "opus".
	TargetCodec string
	// Timeout bounds a single transform invocation.
	Timeout time.Duration
}

// Transform is a single pure file-to-file step.
type Transform func(ctx context.Context, path string) error

// Pipeline runs an ordered sequence of Transforms against one file.
type Pipeline struct {
	cfg        Config
	transforms []namedTransform
}

type namedTransform struct {
	name string
	fn   Transform
}

// New builds the default pipeline: trim_silence -> loudness_normalize ->
// compress(codec=TargetCodec).
func New(cfg Config) *Pipeline {
	p := &Pipeline{cfg: cfg}
	p.transforms = []namedTransform{
		{"trim_silence", p.trimSilence},
		{"loudness_normalize", p.loudnessNormalize},
		{"compress", p.compress},
	}
	return p
}

// Run executes every transform in order against path, stopping at (and
// propagating) the first failure. A transform that fails leaves path
// untouched, so the file is always left in some consistent, playable
// state.
func (p *Pipeline) Run(ctx context.Context, path string) error {
	for _, t := range p.transforms {
		if err := t.fn(ctx, path); err != nil {
			return &TransformError{Stage: t.name, Path: path, Err: err}
		}
	}
	return nil
}
