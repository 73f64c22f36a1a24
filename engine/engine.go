// Package engine renders a backend variant's templates and writes the
// generated project.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/cpcf/scaffold/postprocess"
	"github.com/cpcf/scaffold/state"
	"github.com/cpcf/scaffold/template"
	"github.com/cpcf/scaffold/variant"
	"github.com/cpcf/scaffold/write"
)

type Engine struct {
	logger         *slog.Logger
	failMode       FailureMode
	workers        int
	writer         write.Writer
	writeOpts      write.WriteOptions
	manifest       bool
	strictPost     bool
	renderer       *Renderer
	cache          *TemplateCache
	postprocessors *postprocess.Chain
}

type FailureMode int

const (
	FailFast FailureMode = iota
	FailAtEnd
	BestEffort
)

func (m FailureMode) String() string {
	switch m {
	case FailFast:
		return "fail-fast"
	case FailAtEnd:
		return "fail-at-end"
	case BestEffort:
		return "best-effort"
	default:
		return fmt.Sprintf("FailureMode(%d)", int(m))
	}
}

// ParseFailureMode maps a configuration value to a FailureMode. The empty
// string selects FailFast.
func ParseFailureMode(s string) (FailureMode, error) {
	switch s {
	case "", "fail-fast":
		return FailFast, nil
	case "fail-at-end":
		return FailAtEnd, nil
	case "best-effort":
		return BestEffort, nil
	default:
		return FailFast, fmt.Errorf("unknown failure mode %q", s)
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		logger:         slog.Default(),
		failMode:       FailFast,
		writer:         write.NewFileWriter(),
		writeOpts:      write.DefaultOptions(),
		cache:          NewTemplateCache(),
		postprocessors: postprocess.NewChain(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.renderer = NewRenderer(e.logger, e.cache, e.postprocessors, e.strictPost)

	return e
}

// Scaffold generates the project for backendID into src.OutputRoot.
// Templates are validated against the inputs before anything is rendered.
func (e *Engine) Scaffold(ctx context.Context, src Context, backendID string, in variant.Inputs) error {
	v, err := variant.SelectVariant(backendID)
	if err != nil {
		return err
	}
	values := variant.BuildContext(in)

	if err := variant.Validate(src.TmplFS, v, values); err != nil {
		if e.failMode != BestEffort {
			return fmt.Errorf("invalid templates: %w", err)
		}
		e.logger.Warn("template validation failed", "backend", v.Backend, "error", err)
	}

	e.logger.Info("scaffolding project",
		"backend", v.Backend,
		"crate", in.CrateName,
		"output", src.OutputRoot,
		"templates", len(v.Templates))

	return e.RenderVariant(ctx, src, v, values)
}

// RenderVariant renders v and writes the results below src.OutputRoot.
// Unless the engine runs in BestEffort mode nothing is written when any
// template fails.
func (e *Engine) RenderVariant(ctx context.Context, src Context, v variant.Variant, values template.Context) error {
	files, err := e.RenderFiles(ctx, src, v, values)
	if err != nil {
		return err
	}

	var manifest *state.Manifest
	if e.manifest {
		manifest = state.NewManifest(v.Backend.String(), src.OutputRoot)
	}

	var multiErr MultiError
	for _, f := range files {
		outputPath := filepath.Join(src.OutputRoot, filepath.FromSlash(f.Path))
		if err := e.writer.Write(outputPath, f.Content, e.writeOpts); err != nil {
			if e.failMode == FailFast {
				return &GenerationError{Path: f.Path, Message: "write failed", Err: err}
			}
			multiErr.Add(f.Path, "write failed", err)
			continue
		}

		e.logger.Info("rendered template", "template", f.Template, "output", outputPath)
		if manifest != nil {
			manifest.Record(f.Path, f.Template, f.Content)
		}
	}

	if manifest != nil {
		if err := e.saveManifest(src.OutputRoot, manifest); err != nil {
			multiErr.Add(state.ManifestFile, "manifest failed", err)
		}
	}

	if multiErr.HasErrors() {
		if e.failMode == BestEffort {
			for _, ge := range multiErr.Errors {
				e.logger.Warn("generation failed", "path", ge.Path, "error", ge.Err)
			}
			return nil
		}
		return &multiErr
	}
	return nil
}

// RenderFiles renders every template of v with values in parallel. Files are
// returned in the order v lists them. In FailFast mode the first failure
// cancels the rest; in FailAtEnd mode all failures are returned as a
// *MultiError; in BestEffort mode failures are logged and the successful
// files returned.
func (e *Engine) RenderFiles(ctx context.Context, src Context, v variant.Variant, values template.Context) ([]File, error) {
	n := len(v.Templates)
	if n == 0 {
		return nil, nil
	}

	run, cancel := context.WithCancel(ctx)
	defer cancel()

	abort := func() {}
	if e.failMode == FailFast {
		abort = cancel
	}

	workers := e.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool := NewWorkerPool(min(workers, n))
	pool.Start()
	defer pool.Stop()

	files := make([]File, n)
	errs := make([]error, n)

	var done sync.WaitGroup
	done.Add(n)
	for i, tp := range v.Templates {
		task := &renderTask{
			run:      run,
			index:    i,
			src:      src,
			tp:       tp,
			values:   values,
			renderer: e.renderer,
			files:    files,
			errs:     errs,
			done:     &done,
			abort:    abort,
		}
		if err := pool.Submit(run, task); err != nil {
			for j := i; j < n; j++ {
				errs[j] = err
				done.Done()
			}
			break
		}
	}
	done.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var multiErr MultiError
	for i, err := range errs {
		if err == nil || errors.Is(err, context.Canceled) {
			continue
		}
		multiErr.Add(v.Templates[i].Source, "render failed", err)
	}

	if multiErr.HasErrors() {
		switch e.failMode {
		case FailFast:
			return nil, multiErr.Errors[0]
		case FailAtEnd:
			return nil, &multiErr
		default:
			for _, ge := range multiErr.Errors {
				e.logger.Warn("render failed", "template", ge.Path, "error", ge.Err)
			}
		}
	}

	out := make([]File, 0, n)
	for i, f := range files {
		if errs[i] == nil {
			out = append(out, f)
		}
	}

	e.logger.Debug("rendered variant", "backend", v.Backend, "files", len(out), "stats", pool.Stats())
	return out, nil
}

func (e *Engine) saveManifest(outputRoot string, manifest *state.Manifest) error {
	mm := state.NewManifestManager(outputRoot)

	prev, err := mm.Load()
	if err != nil {
		e.logger.Warn("ignoring unreadable manifest", "path", mm.Path(), "error", err)
	}
	for _, p := range manifest.Stale(prev) {
		e.logger.Warn("file from a previous run is no longer generated", "path", p)
	}

	if err := mm.Save(manifest); err != nil {
		return err
	}
	e.logger.Debug("saved manifest", "path", mm.Path(), "id", manifest.ID, "entries", len(manifest.Entries))
	return nil
}

// AddPostProcessor adds a post-processor to the processing chain.
// Processors are applied in the order they are added.
func (e *Engine) AddPostProcessor(processor postprocess.Processor) {
	e.postprocessors.Add(processor)
}

// AddPostProcessorFunc adds a function as a post-processor to the processing chain.
func (e *Engine) AddPostProcessorFunc(fn func(filePath string, content []byte) ([]byte, error)) {
	e.postprocessors.AddFunc(fn)
}

// AddPostProcessorFor adds a post-processor that only runs on outputs whose
// base name matches pattern.
func (e *Engine) AddPostProcessorFor(pattern string, processor postprocess.Processor) error {
	return e.postprocessors.AddFor(pattern, processor)
}

// ClearCache drops every parsed template, so edited sources are re-read.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}
