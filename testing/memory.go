// Package testing provides helpers for tests of scaffold templates and the
// generation engine: in-memory template sources plus diff and snapshot
// assertions.
package testing

import (
	"io"
	"io/fs"
	"path"
	"sort"
	"sync"
	"time"
)

// MemoryFS is an fs.FS holding template sources in memory. It is safe for
// concurrent reads while no writes are in progress.
type MemoryFS struct {
	mu    sync.RWMutex
	files map[string]*MemoryFile
}

type MemoryFile struct {
	name    string
	content []byte
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		files: map[string]*MemoryFile{
			".": {name: ".", mode: 0o755 | fs.ModeDir, isDir: true},
		},
	}
}

// NewMemoryFSFrom returns a MemoryFS holding the given path → content pairs.
func NewMemoryFSFrom(files map[string]string) *MemoryFS {
	mfs := NewMemoryFS()
	for name, content := range files {
		mfs.WriteString(name, content)
	}
	return mfs
}

func (mfs *MemoryFS) WriteFile(name string, data []byte) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name = path.Clean(name)
	mfs.files[name] = &MemoryFile{
		name:    name,
		content: append([]byte(nil), data...),
		mode:    0o644,
		modTime: time.Now(),
	}
	mfs.ensureDir(path.Dir(name))
}

func (mfs *MemoryFS) WriteString(name, content string) {
	mfs.WriteFile(name, []byte(content))
}

// Remove deletes a file. Directories are left in place.
func (mfs *MemoryFS) Remove(name string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	delete(mfs.files, path.Clean(name))
}

func (mfs *MemoryFS) ensureDir(dir string) {
	if dir == "." || dir == "/" {
		return
	}
	if _, exists := mfs.files[dir]; exists {
		return
	}
	mfs.files[dir] = &MemoryFile{
		name:    dir,
		mode:    0o755 | fs.ModeDir,
		modTime: time.Now(),
		isDir:   true,
	}
	mfs.ensureDir(path.Dir(dir))
}

func (mfs *MemoryFS) lookup(name string) (*MemoryFile, bool) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	file, ok := mfs.files[path.Clean(name)]
	return file, ok
}

func (mfs *MemoryFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	file, ok := mfs.lookup(name)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &memoryFileHandle{file: file, mfs: mfs, path: file.name}, nil
}

// ReadFile implements fs.ReadFileFS.
func (mfs *MemoryFS) ReadFile(name string) ([]byte, error) {
	file, ok := mfs.lookup(name)
	if !ok || file.isDir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), file.content...), nil
}

func (mfs *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	name = path.Clean(name)
	var entries []fs.DirEntry
	for filePath, file := range mfs.files {
		if filePath != "." && path.Dir(filePath) == name {
			entries = append(entries, &memoryDirEntry{file})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

type memoryFileHandle struct {
	file   *MemoryFile
	mfs    *MemoryFS
	path   string
	offset int
}

func (f *memoryFileHandle) Read(b []byte) (int, error) {
	if f.file.isDir {
		return 0, &fs.PathError{Op: "read", Path: f.path, Err: fs.ErrInvalid}
	}
	if f.offset >= len(f.file.content) {
		return 0, io.EOF
	}
	n := copy(b, f.file.content[f.offset:])
	f.offset += n
	return n, nil
}

func (f *memoryFileHandle) Stat() (fs.FileInfo, error) {
	return f.file, nil
}

func (f *memoryFileHandle) Close() error {
	return nil
}

func (f *memoryFileHandle) ReadDir(n int) ([]fs.DirEntry, error) {
	if !f.file.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: f.path, Err: fs.ErrInvalid}
	}
	entries, err := f.mfs.ReadDir(f.path)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > len(entries) {
		return entries, nil
	}
	return entries[:n], nil
}

type memoryDirEntry struct {
	file *MemoryFile
}

func (e *memoryDirEntry) Name() string               { return path.Base(e.file.name) }
func (e *memoryDirEntry) IsDir() bool                { return e.file.isDir }
func (e *memoryDirEntry) Type() fs.FileMode          { return e.file.mode.Type() }
func (e *memoryDirEntry) Info() (fs.FileInfo, error) { return e.file, nil }

func (f *MemoryFile) Name() string       { return path.Base(f.name) }
func (f *MemoryFile) Size() int64        { return int64(len(f.content)) }
func (f *MemoryFile) Mode() fs.FileMode  { return f.mode }
func (f *MemoryFile) ModTime() time.Time { return f.modTime }
func (f *MemoryFile) IsDir() bool        { return f.isDir }
func (f *MemoryFile) Sys() any           { return nil }
