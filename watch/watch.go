// Package watch re-runs a function whenever files below a directory change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long events are collected before fn runs.
const DefaultDebounce = 200 * time.Millisecond

type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
	// Ignore reports paths whose events are dropped, e.g. the output
	// directory when it lives below the watched one.
	Ignore func(path string) bool
}

type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger
	ignore   func(string) bool
	fsw      *fsnotify.Watcher
}

// New watches dir and every directory below it.
func New(dir string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		dir:      dir,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		ignore:   opts.Ignore,
		fsw:      fsw,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.ignore == nil {
		w.ignore = func(string) bool { return false }
	}

	if err := w.addTree(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || w.ignore(path)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Run calls fn once for every settled burst of changes until ctx is done.
// Errors returned by fn are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, fn func() error) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.ignore(event.Name) || (event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write)) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case <-timer.C:
			pending = false
			if err := fn(); err != nil {
				w.logger.Error("regeneration failed", "error", err)
			} else {
				w.logger.Info("regenerated", "dir", w.dir)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("watch events overflowed", "error", err)
				continue
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}

// Close stops watching without running Run.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
