// Package filewatch watches the dependency manifest and notifies
// subscribers when it changes, debouncing rapid editor saves.
package filewatch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oklog/ulid/v2"
)

const defaultDebounce = 500 * time.Millisecond

// Change describes a manifest change that survived debouncing.
type Change struct {
	Path string
	At   time.Time
}

// Handler receives manifest change notifications.
type Handler func(change Change)

// ManifestWatcher watches a single manifest file for changes. It watches
// the parent directory rather than the file itself so editors that replace
// the file on save are still observed.
type ManifestWatcher struct {
	mu           sync.RWMutex
	watcher      *fsnotify.Watcher
	manifestPath string
	debounce     time.Duration
	handlers     map[string]Handler
	pendingAt    time.Time
	pending      bool
	stopCh       chan struct{}
	doneCh       chan struct{}
	running      bool
}

// NewManifestWatcher creates a watcher for the given manifest path.
// A non-positive debounce falls back to the default.
func NewManifestWatcher(manifestPath string, debounce time.Duration) (*ManifestWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}

	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		watcher.Close()
		return nil, err
	}

	return &ManifestWatcher{
		watcher:      watcher,
		manifestPath: abs,
		debounce:     debounce,
		handlers:     make(map[string]Handler),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

// Subscribe registers a change handler and returns its subscription ID.
func (w *ManifestWatcher) Subscribe(handler Handler) string {
	if w == nil || handler == nil {
		return ""
	}
	id := ulid.Make().String()
	w.mu.Lock()
	w.handlers[id] = handler
	w.mu.Unlock()
	return id
}

// Unsubscribe removes a subscription.
func (w *ManifestWatcher) Unsubscribe(id string) {
	if w == nil || id == "" {
		return
	}
	w.mu.Lock()
	delete(w.handlers, id)
	w.mu.Unlock()
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
func (w *ManifestWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.manifestPath)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *ManifestWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}

func (w *ManifestWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isManifestEvent(event) {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.pendingAt = time.Now()
			w.mu.Unlock()

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are transient on most platforms; the next
			// successful event re-arms the pipeline.

		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *ManifestWatcher) isManifestEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.manifestPath {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// flushPending fires handlers once a pending change has settled for the
// debounce window.
func (w *ManifestWatcher) flushPending() {
	w.mu.Lock()
	if !w.pending || time.Since(w.pendingAt) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = false
	change := Change{Path: w.manifestPath, At: w.pendingAt}
	handlers := make([]Handler, 0, len(w.handlers))
	for _, h := range w.handlers {
		handlers = append(handlers, h)
	}
	w.mu.Unlock()

	for _, h := range handlers {
		h(change)
	}
}
