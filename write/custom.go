package write

import (
	"path/filepath"
	"sync"
	"sync/atomic"
)

// SkipUnchangedWriter only writes files whose content differs from what is
// already there. Watch mode wraps its writer in one so that re-scaffolding
// leaves untouched files alone.
//
// Files this writer has produced, or found already up to date, are replaced
// when their content changes. Any other existing file is written according
// to the caller's WriteOptions, so a first run over an existing project is
// refused unless Overwrite is set.
type SkipUnchangedWriter struct {
	base    Writer
	skipped atomic.Int64

	mu    sync.Mutex
	owned map[string]bool
}

func NewSkipUnchangedWriter(base Writer) *SkipUnchangedWriter {
	if base == nil {
		base = NewFileWriter()
	}
	return &SkipUnchangedWriter{base: base, owned: make(map[string]bool)}
}

func (w *SkipUnchangedWriter) Write(path string, content []byte, options WriteOptions) error {
	needs, err := w.base.NeedsWrite(path, content)
	if err != nil {
		return err
	}
	if !needs {
		w.skipped.Add(1)
		w.own(path)
		return nil
	}

	if w.owns(path) {
		options.Overwrite = true
	}
	if err := w.base.Write(path, content, options); err != nil {
		return err
	}
	w.own(path)
	return nil
}

func (w *SkipUnchangedWriter) NeedsWrite(path string, content []byte) (bool, error) {
	return w.base.NeedsWrite(path, content)
}

// Skipped reports how many writes were skipped as unchanged.
func (w *SkipUnchangedWriter) Skipped() int {
	return int(w.skipped.Load())
}

func (w *SkipUnchangedWriter) own(path string) {
	w.mu.Lock()
	w.owned[filepath.Clean(path)] = true
	w.mu.Unlock()
}

func (w *SkipUnchangedWriter) owns(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.owned[filepath.Clean(path)]
}
