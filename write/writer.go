// Package write emits generated files.
package write

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrExists is returned when a file exists and WriteOptions.Overwrite is
// false.
var ErrExists = errors.New("file already exists")

type Writer interface {
	Write(path string, content []byte, options WriteOptions) error
	NeedsWrite(path string, content []byte) (bool, error)
}

type WriteOptions struct {
	CreateDirs bool
	Backup     bool
	BackupDir  string
	Overwrite  bool
	Atomic     bool
}

// DefaultOptions creates missing directories and writes atomically without
// replacing existing files.
func DefaultOptions() WriteOptions {
	return WriteOptions{CreateDirs: true, Atomic: true}
}

// FileWriter writes to the local filesystem.
type FileWriter struct{}

func NewFileWriter() *FileWriter {
	return &FileWriter{}
}

func (fw *FileWriter) Write(path string, content []byte, options WriteOptions) error {
	if options.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create directories: %w", err)
		}
	}

	if !options.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	if options.Backup {
		if err := fw.createBackup(path, options.BackupDir); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	if options.Atomic {
		return fw.atomicWrite(path, content)
	}
	return os.WriteFile(path, content, 0o644)
}

// NeedsWrite reports whether path is missing or holds different content.
func (fw *FileWriter) NeedsWrite(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	return !bytes.Equal(existing, content), nil
}

func (fw *FileWriter) createBackup(path, backupDir string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if backupDir == "" {
		backupDir = filepath.Dir(path)
	}
	backupPath := filepath.Join(backupDir, filepath.Base(path)+".bak")

	input, err := os.Open(path)
	if err != nil {
		return err
	}
	defer input.Close()

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return err
	}

	output, err := os.Create(backupPath)
	if err != nil {
		return err
	}
	defer output.Close()

	_, err = io.Copy(output, input)
	return err
}

func (fw *FileWriter) atomicWrite(path string, content []byte) error {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tempPath := file.Name()

	if _, err := file.Write(content); err != nil {
		file.Close()
		os.Remove(tempPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Chmod(tempPath, 0o644); err != nil {
		os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, path)
}
