// Package watcher rebuilds the index when the corpus file changes.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last change
// before rebuilding. Editors often write a file several times per save.
const DefaultDebounce = 500 * time.Millisecond

// ErrMissingBuilder is returned when no index builder is provided.
var ErrMissingBuilder = errors.New("index builder is required")

// Builder rebuilds and swaps in the index.
type Builder interface {
	Build(ctx context.Context) (domain.IndexInfo, error)
}

// Result describes one rebuild attempt.
type Result struct {
	Info domain.IndexInfo
	Err  error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a rebuild.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnRebuild registers a callback invoked after every rebuild attempt.
func WithOnRebuild(fn func(Result)) Option {
	return func(w *Watcher) {
		w.onRebuild = fn
	}
}

// Watcher watches a single corpus file. The parent directory is watched
// so that editors which save by renaming a temporary file are seen.
type Watcher struct {
	path      string
	builder   Builder
	debounce  time.Duration
	onRebuild func(Result)

	mu      sync.Mutex
	running bool
}

// New creates a watcher for the corpus file at path.
func New(path string, builder Builder, opts ...Option) (*Watcher, error) {
	if builder == nil {
		return nil, ErrMissingBuilder
	}
	if path == "" {
		return nil, fmt.Errorf("%w: no corpus file to watch", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	w := &Watcher{
		path:     abs,
		builder:  builder,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run watches until ctx is cancelled. A failed rebuild is reported and
// the previous index keeps serving.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	logger.Info("Watching %s", w.path)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.isRelevant(event) {
				logger.Debug("Corpus event: %s", event)
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			w.rebuild(ctx)
		}
	}
}

// isRelevant reports whether event changes the watched file's content.
func (w *Watcher) isRelevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) rebuild(ctx context.Context) {
	info, err := w.builder.Build(ctx)
	if err != nil {
		logger.Error("Rebuild after change to %s failed, keeping previous index: %v", w.path, err)
	} else {
		logger.Info("Rebuilt index: %d chunks", info.Chunks)
	}
	if w.onRebuild != nil {
		w.onRebuild(Result{Info: info, Err: err})
	}
}
