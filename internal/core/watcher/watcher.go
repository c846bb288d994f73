// Package watcher turns file system events under a source root into batches
// of changed Python files.
package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"typewalk/internal/core/config"
	"typewalk/internal/shared/observability"
	"typewalk/internal/shared/util"

	"github.com/fsnotify/fsnotify"
)

// Watcher debounces changes under one root and hands each batch to onChange.
// Batches arriving faster than the limiter allows stay pending and are
// retried after the next debounce interval.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	root       string
	matcher    *config.Matcher
	debounce   time.Duration
	limiter    *util.Limiter
	onChange   func([]string) error
	callbackMu sync.Mutex

	pending   map[string]struct{}
	pendingMu sync.Mutex
	timer     *time.Timer
	closed    bool
}

func New(root string, matcher *config.Matcher, cfg config.Watch, onChange func([]string) error) (*Watcher, error) {
	if onChange == nil || matcher == nil {
		return nil, os.ErrInvalid
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsw,
		root:      abs,
		matcher:   matcher,
		debounce:  cfg.Debounce,
		limiter:   util.NewLimiter(cfg.MaxRechecksPerSecond, 1),
		onChange:  onChange,
		pending:   make(map[string]struct{}),
	}, nil
}

// Start registers the root recursively and begins delivering batches.
func (w *Watcher) Start() error {
	if err := w.watchRecursive(w.root); err != nil {
		return err
	}
	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.matcher.Excluded(w.rel(path)) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.matcher.Excluded(w.rel(event.Name)) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			if !w.matcher.Match(w.rel(event.Name)) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return rel
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}
	w.resetTimerLocked()
}

func (w *Watcher) resetTimerLocked() {
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	if !w.limiter.Allow(1) {
		observability.WatchBatchesTotal.WithLabelValues("throttled").Inc()
		w.resetTimerLocked()
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	slices.Sort(paths)

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	if err := w.onChange(paths); err != nil {
		observability.WatchBatchesTotal.WithLabelValues("failed").Inc()
		slog.Warn("recheck failed", "files", len(paths), "error", err)
		return
	}
	observability.WatchBatchesTotal.WithLabelValues("checked").Inc()
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if w.matcher.Match(w.rel(path)) {
			w.scheduleChange(path)
		}
		return nil
	})
}
