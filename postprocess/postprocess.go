// Package postprocess applies transformations and checks to rendered files
// before they are written.
//
// Processors receive the project-relative output path and the rendered
// content. Typical uses in a scaffold are normalising line endings and
// rejecting a manifest that no longer parses after rendering:
//
//	eng := engine.New()
//	eng.AddPostProcessor(processors.NewTrailingNewline())
//	eng.AddPostProcessorFor("*.toml", processors.NewTOMLCheck())
package postprocess

import (
	"fmt"
	"path"
)

// Processor defines the interface for content post-processors.
// Implementations should be stateless and safe for concurrent use.
type Processor interface {
	// ProcessContent returns the transformed content. Processors should
	// return content unchanged for files they do not handle.
	ProcessContent(filePath string, content []byte) ([]byte, error)
}

// ProcessorFunc is a function adapter that implements the Processor interface.
type ProcessorFunc func(filePath string, content []byte) ([]byte, error)

// ProcessContent implements the Processor interface.
func (f ProcessorFunc) ProcessContent(filePath string, content []byte) ([]byte, error) {
	return f(filePath, content)
}

type entry struct {
	pattern   string // base-name pattern, empty matches every file
	processor Processor
}

// Chain runs processors in the order they were added. A Chain must not be
// modified while Process runs.
type Chain struct {
	entries []entry
}

// NewChain creates a new empty processor chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add adds a processor applied to every file.
func (c *Chain) Add(processor Processor) {
	c.entries = append(c.entries, entry{processor: processor})
}

// AddFunc adds a function as a processor applied to every file.
func (c *Chain) AddFunc(fn func(filePath string, content []byte) ([]byte, error)) {
	c.Add(ProcessorFunc(fn))
}

// AddFor adds a processor applied only to files whose base name matches
// pattern (path.Match syntax).
func (c *Chain) AddFor(pattern string, processor Processor) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	c.entries = append(c.entries, entry{pattern: pattern, processor: processor})
	return nil
}

// Process runs all matching processors in sequence on content.
// If any processor fails, processing stops and the error is returned.
func (c *Chain) Process(filePath string, content []byte) ([]byte, error) {
	result := content
	base := path.Base(filePath)
	for i, e := range c.entries {
		if e.pattern != "" {
			if ok, _ := path.Match(e.pattern, base); !ok {
				continue
			}
		}
		processed, err := e.processor.ProcessContent(filePath, result)
		if err != nil {
			return nil, fmt.Errorf("processor %d failed for %s: %w", i, filePath, err)
		}
		result = processed
	}
	return result, nil
}

// HasProcessors returns true if the chain contains any processors.
func (c *Chain) HasProcessors() bool {
	return len(c.entries) > 0
}

// Len returns the number of processors in the chain.
func (c *Chain) Len() int {
	return len(c.entries)
}

// Clear removes all processors from the chain.
func (c *Chain) Clear() {
	c.entries = c.entries[:0]
}
