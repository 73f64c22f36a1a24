package engine

import (
	"fmt"
	"log/slog"

	"github.com/cpcf/scaffold/postprocess"
	"github.com/cpcf/scaffold/template"
	"github.com/cpcf/scaffold/variant"
)

// File is one rendered output, addressed relative to the output root.
type File struct {
	Path     string
	Template string
	Content  []byte
}

type Renderer struct {
	logger         *slog.Logger
	cache          *TemplateCache
	postprocessors *postprocess.Chain
	strictPost     bool
}

func NewRenderer(logger *slog.Logger, cache *TemplateCache, postprocessors *postprocess.Chain, strictPost bool) *Renderer {
	return &Renderer{
		logger:         logger,
		cache:          cache,
		postprocessors: postprocessors,
		strictPost:     strictPost,
	}
}

func (r *Renderer) renderFile(ctx Context, tp variant.TemplatePath, values template.Context) (File, error) {
	r.logger.Debug("rendering template", "path", tp.Source)

	tmpl, err := r.cache.Get(ctx.SourceID, ctx.TmplFS, tp.Source)
	if err != nil {
		return File{}, fmt.Errorf("failed to get template %s: %w", tp.Source, err)
	}

	out, err := tmpl.Render(values)
	if err != nil {
		return File{}, err
	}
	content := []byte(out)

	if r.postprocessors.HasProcessors() {
		processed, err := r.postprocessors.Process(tp.Output, content)
		if err != nil {
			if r.strictPost {
				return File{}, fmt.Errorf("post-processing failed: %w", err)
			}
			r.logger.Warn("post-processing failed", "path", tp.Output, "error", err)
		} else {
			content = processed
		}
	}

	return File{Path: tp.Output, Template: tp.Source, Content: content}, nil
}
