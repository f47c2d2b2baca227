package cache

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the coalescing window for file change events. Several
// quick saves of the same resource inside this window invalidate its region
// once.
const DefaultDebounce = 300 * time.Millisecond

// PathRule maps changed paths to their owning cache category by substring
// match. Rules are consulted in order; the first match wins.
type PathRule struct {
	Substr   string
	Category Category
}

// Watcher observes the data directory and invalidates the cache region that
// owns each changed path. Invalidation is debounced per category.
type Watcher struct {
	cache    *Cache
	rules    []PathRule
	paths    []string
	debounce time.Duration
	logger   *slog.Logger

	// OnInvalidate, if set, runs after a category has been invalidated.
	// The broadcaster hooks in here to fan the change out to subscribers.
	OnInvalidate func(Category)

	mu      sync.Mutex
	timers  map[Category]*time.Timer
	fsw     *fsnotify.Watcher
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewWatcher creates a watcher for the given paths. Directories are watched
// recursively one level deep by fsnotify semantics; paths that do not exist
// yet are skipped and picked up on restart.
func NewWatcher(c *Cache, paths []string, rules []PathRule, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		cache:    c,
		rules:    rules,
		paths:    paths,
		debounce: debounce,
		logger:   logger.With("component", "watcher"),
		timers:   make(map[Category]*time.Timer),
	}
}

// Start begins watching in a background goroutine. It returns an error only
// when the underlying fsnotify watcher cannot be created.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	w.fsw = fsw

	for _, p := range w.paths {
		if err := fsw.Add(p); err != nil {
			w.logger.Warn("skipping watch path", "path", p, "error", err)
		}
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.stopped = make(chan struct{})
	go w.run(ctx)
	return nil
}

// Stop cancels the watch loop and releases the fsnotify watcher.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
		<-w.stopped
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.stopped)
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			cat, ok := w.categoryForPath(event.Name)
			if !ok {
				continue
			}
			w.schedule(cat)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// categoryForPath maps a changed path to its owning category.
func (w *Watcher) categoryForPath(path string) (Category, bool) {
	normalized := filepath.ToSlash(path)
	for _, r := range w.rules {
		if strings.Contains(normalized, r.Substr) {
			return r.Category, true
		}
	}
	return "", false
}

// schedule arms (or re-arms) the debounce timer for a category. The
// invalidation fires once the category has been quiet for the full window.
func (w *Watcher) schedule(cat Category) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[cat]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[cat] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, cat)
		w.mu.Unlock()

		w.cache.Invalidate(cat)
		w.logger.Debug("invalidated", "category", cat)
		if w.OnInvalidate != nil {
			w.OnInvalidate(cat)
		}
	})
}
