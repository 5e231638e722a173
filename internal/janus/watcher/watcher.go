// Package watcher keeps a store.Store synchronized with its ticket, plan,
// and doc directories via a debounced filesystem watch, with retry on
// parse failure and a full-rescan fallback when event volume overflows
// the internal queue.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/janus-md/janus/internal/janus/cache"
	"github.com/janus-md/janus/internal/janus/embedding"
	"github.com/janus-md/janus/internal/janus/locator"
	"github.com/janus-md/janus/internal/janus/store"
)

// DebounceWindow is the fixed delay after the last observed event in a
// burst before a batch is processed. Overridable only in tests via the
// unexported withDebounce option; the config file has no debounce setting.
const DebounceWindow = 150 * time.Millisecond

// pendingCap bounds the coalesced pending-events map; once full, newly
// observed paths trigger a full rescan rather than growing unbounded.
const pendingCap = 1024

// recentEditTTL is how long a path stays in the self-write suppression
// set after MarkWritten, long enough to absorb the watcher's own
// fsnotify echo of a write this process just performed.
const recentEditTTL = 2 * time.Second

// embedConcurrency bounds how many embedding regenerations may run at
// once in response to filesystem changes.
const embedConcurrency = 4

// retryDeadline is how long a failed parse waits before being retried.
const retryDeadline = 300 * time.Millisecond

// maxRetries is how many times a path is retried before being dropped
// with a warning.
const maxRetries = 3

// ErrAlreadyBound is returned by Start when a Watcher is already running
// against a different store. Only one Watcher may be bound at a time.
var ErrAlreadyBound = errors.New("watcher: already bound to a different store")

var (
	singletonMu    sync.Mutex
	singletonStore *store.Store
	singleton      *Watcher
)

// Watcher observes root's items/plans/docs directories and keeps st in
// sync.
type Watcher struct {
	root     string
	st       *store.Store
	fsw      *fsnotify.Watcher
	embedder embedding.Embedder

	cache          *cache.Cache
	embedBatchSize int

	debounce time.Duration

	done chan struct{}
	wg   sync.WaitGroup

	rescanNeeded atomic.Bool

	recentMu sync.Mutex
	recent   map[string]time.Time

	embedSem chan struct{}

	retryMu    sync.Mutex
	retryQueue map[string]*retryEntry

	warnMu   sync.Mutex
	warnings []string
}

// Option configures a Watcher at Start time.
type Option func(*Watcher)

// WithEmbedder sets the embedder used to regenerate vectors when a
// ticket or doc changes. Without one, embedding regeneration is skipped.
func WithEmbedder(e embedding.Embedder) Option {
	return func(w *Watcher) { w.embedder = e }
}

// WithEmbedBatchSize bounds how many texts are sent to the embedder's
// EmbedBatch in a single call when a batch of filesystem changes needs
// embedding. Zero or negative means no limit: one call per batch of
// changes.
func WithEmbedBatchSize(n int) Option {
	return func(w *Watcher) { w.embedBatchSize = n }
}

// WithCache attaches the persistent mirror to resync after every
// processed batch of filesystem changes, keeping cold-start loads fast.
func WithCache(c *cache.Cache) Option {
	return func(w *Watcher) { w.cache = c }
}

// withDebounce overrides the debounce window, for tests only.
func withDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// Start begins watching root on behalf of st. Calling Start again with
// the same store is idempotent and returns the existing Watcher; calling
// it with a different store while one is already running returns
// ErrAlreadyBound.
func Start(root string, st *store.Store, opts ...Option) (*Watcher, error) {
	singletonMu.Lock()
	defer singletonMu.Unlock()

	if singleton != nil {
		if singletonStore == st {
			return singleton, nil
		}
		return nil, ErrAlreadyBound
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:       root,
		st:         st,
		fsw:        fsw,
		debounce:   DebounceWindow,
		done:       make(chan struct{}),
		recent:     make(map[string]time.Time),
		embedSem:   make(chan struct{}, embedConcurrency),
		retryQueue: make(map[string]*retryEntry),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}

	singletonStore = st
	singleton = w

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Stop halts watching and releases the singleton binding.
func (w *Watcher) Stop() {
	singletonMu.Lock()
	defer singletonMu.Unlock()

	select {
	case <-w.done:
		return // already stopped
	default:
	}
	close(w.done)
	w.fsw.Close()
	w.wg.Wait()

	if singleton == w {
		singleton = nil
		singletonStore = nil
	}
}

// MarkWritten suppresses the next recentEditTTL worth of fsnotify events
// for path, so a write this process just performed via locator.WriteFile
// doesn't get reprocessed as an externally observed change.
func (w *Watcher) MarkWritten(path string) {
	w.recentMu.Lock()
	w.recent[path] = time.Now().Add(recentEditTTL)
	w.recentMu.Unlock()
}

func (w *Watcher) recentlyWritten(path string) bool {
	w.recentMu.Lock()
	defer w.recentMu.Unlock()
	deadline, ok := w.recent[path]
	if !ok {
		return false
	}
	if time.Now().After(deadline) {
		delete(w.recent, path)
		return false
	}
	return true
}

// Warnings returns and clears accumulated non-fatal warnings (parse
// failures exhausting retries, rescan fallbacks, etc).
func (w *Watcher) Warnings() []string {
	w.warnMu.Lock()
	defer w.warnMu.Unlock()
	out := w.warnings
	w.warnings = nil
	return out
}

func (w *Watcher) warn(msg string) {
	w.warnMu.Lock()
	w.warnings = append(w.warnings, msg)
	w.warnMu.Unlock()
}

func (w *Watcher) addTree(root string) error {
	if err := w.fsw.Add(root); err != nil {
		return err
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == root {
			return nil //nolint:nilerr // best-effort: skip unwatchable dirs
		}
		_ = w.fsw.Add(path)
		return nil
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	pending := make(map[string]fsnotify.Op)
	var debounceTimer *time.Timer
	rescanTicker := time.NewTicker(w.debounce)
	defer rescanTicker.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		changes := pending
		pending = make(map[string]fsnotify.Op)
		w.processBatch(changes)
	}

	for {
		select {
		case <-w.done:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleRawEvent(event, pending)

			if len(pending) >= pendingCap {
				w.rescanNeeded.Store(true)
				pending = make(map[string]fsnotify.Op)
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, flush)

		case <-rescanTicker.C:
			if w.rescanNeeded.CompareAndSwap(true, false) {
				w.fullRescan()
			}
			w.processRetryQueue()

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.rescanNeeded.Store(true)
		}
	}
}

func (w *Watcher) handleRawEvent(event fsnotify.Event, pending map[string]fsnotify.Op) {
	if event.Op&fsnotify.Create != 0 && !strings.HasSuffix(event.Name, ".md") {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.fsw.Add(event.Name)
		}
		return
	}
	if !strings.HasSuffix(event.Name, ".md") {
		return
	}
	if w.recentlyWritten(event.Name) {
		return
	}
	relevant := event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
	if !relevant {
		return
	}
	pending[event.Name] |= event.Op
}
