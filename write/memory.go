package write

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryWriter records files instead of writing them. It backs dry runs and
// tests, and is safe for concurrent use.
type MemoryWriter struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{files: make(map[string][]byte)}
}

func (mw *MemoryWriter) Write(path string, content []byte, options WriteOptions) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	path = filepath.Clean(path)
	if _, exists := mw.files[path]; exists && !options.Overwrite {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	mw.files[path] = append([]byte(nil), content...)
	return nil
}

func (mw *MemoryWriter) NeedsWrite(path string, content []byte) (bool, error) {
	mw.mu.RLock()
	defer mw.mu.RUnlock()

	existing, ok := mw.files[filepath.Clean(path)]
	return !ok || !bytes.Equal(existing, content), nil
}

// File returns the content recorded for path.
func (mw *MemoryWriter) File(path string) ([]byte, bool) {
	mw.mu.RLock()
	defer mw.mu.RUnlock()

	content, ok := mw.files[filepath.Clean(path)]
	return content, ok
}

// Paths returns every recorded path in sorted order.
func (mw *MemoryWriter) Paths() []string {
	mw.mu.RLock()
	defer mw.mu.RUnlock()

	paths := make([]string, 0, len(mw.files))
	for p := range mw.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
