package engine

import (
	"log/slog"

	"github.com/cpcf/scaffold/write"
)

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithFailureMode(mode FailureMode) Option {
	return func(e *Engine) {
		e.failMode = mode
	}
}

// WithWorkers sets how many templates render in parallel. Values below one
// use runtime.NumCPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

func WithWriter(w write.Writer) Option {
	return func(e *Engine) {
		e.writer = w
	}
}

func WithWriteOptions(opts write.WriteOptions) Option {
	return func(e *Engine) {
		e.writeOpts = opts
	}
}

// WithManifest records generated files in a manifest in the output root.
func WithManifest(enabled bool) Option {
	return func(e *Engine) {
		e.manifest = enabled
	}
}

// WithStrictPostProcessing turns post-processor failures into generation
// errors. By default they are logged and the unprocessed content is kept.
func WithStrictPostProcessing(strict bool) Option {
	return func(e *Engine) {
		e.strictPost = strict
	}
}
