package write

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestFileWriter_CreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src", "main.rs")

	w := NewFileWriter()
	if err := w.Write(path, []byte("fn main() {}\n"), DefaultOptions()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read written file: %v", err)
	}
	if string(content) != "fn main() {}\n" {
		t.Errorf("Unexpected content %q", string(content))
	}

	entries, err := os.ReadDir(filepath.Join(dir, "src"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected no leftover temp files, found %d entries", len(entries))
	}
}

func TestFileWriter_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewFileWriter()
	err := w.Write(path, []byte("new"), DefaultOptions())
	if !errors.Is(err, ErrExists) {
		t.Fatalf("Expected ErrExists, got %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "old" {
		t.Errorf("Existing file was modified: %q", string(content))
	}
}

func TestFileWriter_OverwriteWithBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.Overwrite = true
	opts.Backup = true

	w := NewFileWriter()
	if err := w.Write(path, []byte("new"), opts); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "new" {
		t.Errorf("Expected new content, got %q", string(content))
	}
	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("Backup missing: %v", err)
	}
	if string(backup) != "old" {
		t.Errorf("Expected backup of old content, got %q", string(backup))
	}
}

func TestFileWriter_NeedsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "README.md")
	w := NewFileWriter()

	needs, err := w.NeedsWrite(path, []byte("a"))
	if err != nil || !needs {
		t.Fatalf("Expected missing file to need a write, got %v, %v", needs, err)
	}

	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	needs, err = w.NeedsWrite(path, []byte("a"))
	if err != nil || needs {
		t.Errorf("Expected identical content to need no write, got %v, %v", needs, err)
	}
	needs, _ = w.NeedsWrite(path, []byte("b"))
	if !needs {
		t.Error("Expected changed content to need a write")
	}
}

func TestMemoryWriter(t *testing.T) {
	w := NewMemoryWriter()

	var wg sync.WaitGroup
	for _, p := range []string{"b/Cargo.toml", "a/README.md", "b/src/main.rs"} {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			if err := w.Write(p, []byte(p), DefaultOptions()); err != nil {
				t.Errorf("Write %s failed: %v", p, err)
			}
		}(p)
	}
	wg.Wait()

	paths := w.Paths()
	want := []string{"a/README.md", "b/Cargo.toml", "b/src/main.rs"}
	if len(paths) != len(want) {
		t.Fatalf("Expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}

	if err := w.Write("a/README.md", []byte("x"), DefaultOptions()); !errors.Is(err, ErrExists) {
		t.Errorf("Expected ErrExists, got %v", err)
	}
	content, ok := w.File("a/./README.md")
	if !ok || string(content) != "a/README.md" {
		t.Errorf("File returned %q, %v", string(content), ok)
	}
}

func TestSkipUnchangedWriter(t *testing.T) {
	mem := NewMemoryWriter()
	w := NewSkipUnchangedWriter(mem)

	if err := w.Write("Cargo.toml", []byte("v1"), DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if err := w.Write("Cargo.toml", []byte("v1"), DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if w.Skipped() != 1 {
		t.Errorf("Expected 1 skipped write, got %d", w.Skipped())
	}

	if err := w.Write("Cargo.toml", []byte("v2"), DefaultOptions()); err != nil {
		t.Fatalf("Changed content should overwrite, got %v", err)
	}
	content, _ := mem.File("Cargo.toml")
	if string(content) != "v2" {
		t.Errorf("Expected v2, got %q", string(content))
	}
}

func TestSkipUnchangedWriter_ExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	if err := os.WriteFile(path, []byte("edited by hand"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewSkipUnchangedWriter(NewFileWriter())
	err := w.Write(path, []byte("generated"), DefaultOptions())
	if !errors.Is(err, ErrExists) {
		t.Fatalf("Expected ErrExists for a file this writer did not produce, got %v", err)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "edited by hand" {
		t.Errorf("Expected existing file untouched, got %q", string(content))
	}

	opts := DefaultOptions()
	opts.Overwrite = true
	opts.Backup = true
	if err := w.Write(path, []byte("generated"), opts); err != nil {
		t.Fatalf("Write with Overwrite failed: %v", err)
	}
	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("Expected backup file: %v", err)
	}
	if string(backup) != "edited by hand" {
		t.Errorf("Expected backup of the edited file, got %q", string(backup))
	}

	if err := w.Write(path, []byte("regenerated"), DefaultOptions()); err != nil {
		t.Fatalf("Expected a file this writer produced to be replaced, got %v", err)
	}
	content, _ = os.ReadFile(path)
	if string(content) != "regenerated" {
		t.Errorf("Expected regenerated, got %q", string(content))
	}
}

func TestSkipUnchangedWriter_AdoptsUpToDateFiles(t *testing.T) {
	mem := NewMemoryWriter()
	if err := mem.Write("README.md", []byte("v1"), DefaultOptions()); err != nil {
		t.Fatal(err)
	}

	w := NewSkipUnchangedWriter(mem)
	if err := w.Write("README.md", []byte("v1"), DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if err := w.Write("./README.md", []byte("v2"), DefaultOptions()); err != nil {
		t.Fatalf("Expected an up-to-date file to be replaced later, got %v", err)
	}
	content, _ := mem.File("README.md")
	if string(content) != "v2" {
		t.Errorf("Expected v2, got %q", string(content))
	}
}
