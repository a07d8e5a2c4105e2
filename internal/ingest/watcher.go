package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/roach88/scenekit/internal/ir"
)

// Inbox subdirectories for handled files.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// DefaultDebounce is how long a file must be quiet before it is read.
const DefaultDebounce = 200 * time.Millisecond

// Watcher submits *.json batches dropped into an inbox directory.
type Watcher struct {
	dir      string
	engine   Engine
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	ready   chan string
	handled func(path string, err error)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithHandled registers a callback run after each file is handled; err is
// nil on success.
func WithHandled(fn func(path string, err error)) WatcherOption {
	return func(w *Watcher) { w.handled = fn }
}

// NewWatcher creates a watcher for dir. The directory and its processed/
// and failed/ subdirectories are created if missing.
func NewWatcher(dir string, eng Engine, logger *zap.Logger, opts ...WatcherOption) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, sub := range []string{"", ProcessedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create inbox %s: %w", dir, err)
		}
	}
	w := &Watcher{
		dir:      dir,
		engine:   eng,
		debounce: DefaultDebounce,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
		ready:    make(chan string, 64),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches the inbox until ctx is cancelled. Files already present when
// Run starts are submitted first, in name order.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	defer w.stopTimers()

	existing, err := filepath.Glob(filepath.Join(w.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("scan %s: %w", w.dir, err)
	}
	for _, path := range existing {
		w.handle(ctx, path)
	}

	w.logger.Info("inbox watcher started", zap.String("dir", w.dir))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("inbox watcher stopping")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && isBatchFile(event.Name) {
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("inbox watcher error", zap.Error(err))

		case path := <-w.ready:
			w.handle(ctx, path)
		}
	}
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// handle submits one file and moves it out of the inbox.
func (w *Watcher) handle(ctx context.Context, path string) {
	err := w.submit(ctx, path)
	dest := ProcessedDir
	if err != nil {
		dest = FailedDir
		w.logger.Error("inbox batch failed", zap.String("file", path), zap.Error(err))
	}
	if _, statErr := os.Stat(path); statErr == nil {
		target := filepath.Join(w.dir, dest, filepath.Base(path))
		if mvErr := os.Rename(path, target); mvErr != nil {
			w.logger.Error("move inbox file failed", zap.String("file", path), zap.Error(mvErr))
		}
	}
	if w.handled != nil {
		w.handled(path, err)
	}
}

func (w *Watcher) submit(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read batch: %w", err)
	}
	var batch ir.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("decode batch: %w", err)
	}
	res, err := w.engine.SubmitBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("submit batch: %w", err)
	}
	w.logger.Info("inbox batch applied",
		zap.String("file", filepath.Base(path)),
		zap.Int("created", len(res.CreatedIDs)),
		zap.Int("updated", len(res.UpdatedIDs)),
		zap.Int("deleted", len(res.DeletedIDs)),
		zap.Int("skipped", res.Skipped))
	return nil
}

func isBatchFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(strings.ToLower(base), ".json") && !strings.HasPrefix(base, ".")
}
