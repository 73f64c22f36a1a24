package engine

import (
	"io/fs"
	"sync"

	"github.com/cpcf/scaffold/template"
)

type cacheKey struct {
	sourceID string
	path     string
}

// TemplateCache holds parsed templates keyed by source and path. Parsed
// templates are immutable, so one entry may be rendered concurrently.
type TemplateCache struct {
	mu        sync.RWMutex
	templates map[cacheKey]*template.Template
}

func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		templates: make(map[cacheKey]*template.Template),
	}
}

// Get returns the parsed template at path in fsys, parsing it on first use.
// Templates that fail to parse are not cached.
func (c *TemplateCache) Get(sourceID string, fsys fs.FS, path string) (*template.Template, error) {
	key := cacheKey{sourceID: sourceID, path: path}

	c.mu.RLock()
	if tmpl, exists := c.templates[key]; exists {
		c.mu.RUnlock()
		return tmpl, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if tmpl, exists := c.templates[key]; exists {
		return tmpl, nil
	}

	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.ParseNamed(path, string(content))
	if err != nil {
		return nil, err
	}

	c.templates[key] = tmpl
	return tmpl, nil
}

func (c *TemplateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}

func (c *TemplateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates = make(map[cacheKey]*template.Template)
}
