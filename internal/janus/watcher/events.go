package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/janus-md/janus/internal/janus/cache"
	"github.com/janus-md/janus/internal/janus/doc"
	"github.com/janus-md/janus/internal/janus/locator"
	"github.com/janus-md/janus/internal/janus/plan"
	"github.com/janus-md/janus/internal/janus/store"
	"github.com/janus-md/janus/internal/janus/ticket"
)

type retryEntry struct {
	deadline time.Time
	attempts int
}

// embedJob is one pending (embedding key, text) pair discovered while
// processing a batch of filesystem changes.
type embedJob struct {
	key  string
	text string
}

func (w *Watcher) scheduleRetry(path string) {
	w.retryMu.Lock()
	defer w.retryMu.Unlock()
	e, ok := w.retryQueue[path]
	if !ok {
		e = &retryEntry{}
		w.retryQueue[path] = e
	}
	e.attempts++
	if e.attempts > maxRetries {
		delete(w.retryQueue, path)
		w.warn(fmt.Sprintf("giving up on %s after %d retries", path, maxRetries))
		return
	}
	e.deadline = time.Now().Add(retryDeadline)
}

func (w *Watcher) clearRetry(path string) {
	w.retryMu.Lock()
	delete(w.retryQueue, path)
	w.retryMu.Unlock()
}

// processRetryQueue re-attempts parsing paths whose retry deadline has
// passed.
func (w *Watcher) processRetryQueue() {
	w.retryMu.Lock()
	now := time.Now()
	var due []string
	for path, e := range w.retryQueue {
		if now.After(e.deadline) {
			due = append(due, path)
		}
	}
	w.retryMu.Unlock()
	if len(due) == 0 {
		return
	}

	changed := &changeSet{}
	var jobs []embedJob
	for _, path := range due {
		if w.processPath(path, changed, &jobs) {
			w.clearRetry(path)
		} else {
			w.scheduleRetry(path)
		}
	}
	w.broadcast(changed)
	w.embedJobs(jobs)
}

// changeSet accumulates what changed within one processed batch, for a
// single coalesced store.Event broadcast.
type changeSet struct {
	ticketsChanged bool
	plansChanged   bool
	ids            []string
}

func (c *changeSet) addTicket(id string) {
	c.ticketsChanged = true
	c.ids = append(c.ids, id)
}

func (c *changeSet) addPlan(id string) {
	c.plansChanged = true
	c.ids = append(c.ids, id)
}

func (w *Watcher) broadcast(c *changeSet) {
	if !c.ticketsChanged && !c.plansChanged {
		return
	}
	w.st.Broadcast(store.Event{
		TicketsChanged: c.ticketsChanged,
		PlansChanged:   c.plansChanged,
		ChangedIDs:     c.ids,
	})
}

// processBatch handles one debounced set of path->op changes.
func (w *Watcher) processBatch(changes map[string]fsnotify.Op) {
	changed := &changeSet{}
	var jobs []embedJob
	for path, op := range changes {
		if op&(fsnotify.Remove|fsnotify.Rename) != 0 && !w.fileExists(path) {
			w.handleRemoval(path, changed)
			continue
		}
		if !w.processPath(path, changed, &jobs) {
			w.scheduleRetry(path)
		} else {
			w.clearRetry(path)
		}
	}
	w.broadcast(changed)
	w.embedJobs(jobs)
	w.syncCache()
}

func (w *Watcher) fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (w *Watcher) handleRemoval(path string, changed *changeSet) {
	id := locator.IDFromPath(path)
	switch {
	case strings.Contains(path, string(filepath.Separator)+"items"+string(filepath.Separator)):
		if _, ok := w.st.GetTicket(id); ok {
			w.st.RemoveTicket(id)
			changed.addTicket(id)
		}
	case strings.Contains(path, string(filepath.Separator)+"plans"+string(filepath.Separator)):
		if _, ok := w.st.GetPlan(id); ok {
			w.st.RemovePlan(id)
			changed.addPlan(id)
		}
	case strings.Contains(path, string(filepath.Separator)+"docs"+string(filepath.Separator)):
		w.st.RemoveDoc(id)
	}
}

// processPath reads and parses the file at path, upserting the result
// into the store. Returns false if the read or parse failed (the caller
// schedules a retry). Any embedding work the change requires is appended
// to jobs rather than run immediately, so the caller can embed everything
// from one filesystem batch together.
func (w *Watcher) processPath(path string, changed *changeSet, jobs *[]embedJob) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return os.IsNotExist(err) // vanished between event and read: not a parse failure
	}

	id := locator.IDFromPath(path)
	switch {
	case strings.Contains(path, string(filepath.Separator)+"items"+string(filepath.Separator)):
		t, _, err := ticket.Parse(data, id)
		if err != nil {
			return false
		}
		t.Path = path
		w.st.UpsertTicket(t)
		changed.addTicket(t.ID)
		*jobs = append(*jobs, embedJob{key: t.ID, text: t.Title + "\n" + t.Body})

	case strings.Contains(path, string(filepath.Separator)+"plans"+string(filepath.Separator)):
		p, _, err := plan.Parse(data, id)
		if err != nil {
			return false
		}
		w.st.UpsertPlan(p)
		changed.addPlan(p.ID)

	case strings.Contains(path, string(filepath.Separator)+"docs"+string(filepath.Separator)):
		d, err := doc.Parse(data, id)
		if err != nil {
			return false
		}
		w.st.UpsertDoc(d)
		for _, c := range doc.Chunk(d.Body) {
			*jobs = append(*jobs, embedJob{key: c.Key(d.Label), text: c.Content})
		}
	}
	return true
}

// embedJobs embeds every job in chunks of at most w.embedBatchSize texts
// per EmbedBatch call, each chunk running concurrently under embedSem. A
// zero or negative embedBatchSize embeds everything in a single batch.
func (w *Watcher) embedJobs(jobs []embedJob) {
	if w.embedder == nil || len(jobs) == 0 {
		return
	}
	batchSize := w.embedBatchSize
	if batchSize <= 0 {
		batchSize = len(jobs)
	}
	for i := 0; i < len(jobs); i += batchSize {
		end := min(i+batchSize, len(jobs))
		batch := jobs[i:end]

		w.embedSem <- struct{}{}
		go func(batch []embedJob) {
			defer func() { <-w.embedSem }()
			texts := make([]string, len(batch))
			for i, j := range batch {
				texts[i] = j.text
			}
			vecs, err := w.embedder.EmbedBatch(context.Background(), texts)
			if err != nil {
				w.warn(fmt.Sprintf("embedding batch of %d: %v", len(batch), err))
				return
			}
			for i, j := range batch {
				w.st.SetEmbedding(j.key, vecs[i])
			}
		}(batch)
	}
}

// syncCache persists the cache's mirror of tickets and plans against disk,
// a no-op when no cache is attached.
func (w *Watcher) syncCache() {
	if w.cache == nil {
		return
	}
	if _, warnings, err := w.cache.Sync(cache.TicketTable(w.root)); err != nil {
		w.warn(fmt.Sprintf("cache sync (tickets): %v", err))
	} else {
		for _, msg := range warnings {
			w.warn(msg)
		}
	}
	if _, warnings, err := w.cache.Sync(cache.PlanTable(w.root)); err != nil {
		w.warn(fmt.Sprintf("cache sync (plans): %v", err))
	} else {
		for _, msg := range warnings {
			w.warn(msg)
		}
	}
}

// fullRescan walks the entire root and reconciles the store against disk,
// used when the event queue overflowed and individual events may have
// been lost.
func (w *Watcher) fullRescan() {
	changed := &changeSet{}
	var jobs []embedJob

	w.rescanDir(locator.ItemsDir(w.root), func(path, id string) {
		if w.processPath(path, changed, &jobs) {
			w.clearRetry(path)
		} else {
			w.scheduleRetry(path)
		}
	})
	existingTickets := w.st.AllTickets()
	onDisk := map[string]bool{}
	_ = filepath.WalkDir(locator.ItemsDir(w.root), func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.HasSuffix(path, ".md") {
			onDisk[locator.IDFromPath(path)] = true
		}
		return nil
	})
	for _, t := range existingTickets {
		if !onDisk[t.ID] {
			w.st.RemoveTicket(t.ID)
			changed.addTicket(t.ID)
		}
	}

	plansOnDisk := map[string]bool{}
	w.rescanDir(locator.PlansDir(w.root), func(path, id string) {
		plansOnDisk[id] = true
		if w.processPath(path, changed, &jobs) {
			w.clearRetry(path)
		} else {
			w.scheduleRetry(path)
		}
	})

	docsOnDisk := map[string]bool{}
	w.rescanDir(locator.DocsDir(w.root), func(path, id string) {
		docsOnDisk[id] = true
		if w.processPath(path, changed, &jobs) {
			w.clearRetry(path)
		} else {
			w.scheduleRetry(path)
		}
	})

	for _, p := range w.st.AllPlans() {
		if !plansOnDisk[p.ID] {
			w.st.RemovePlan(p.ID)
			changed.addPlan(p.ID)
		}
	}
	for _, d := range w.st.AllDocs() {
		if !docsOnDisk[d.Label] {
			w.st.RemoveDoc(d.Label)
		}
	}

	w.broadcast(changed)
	w.embedJobs(jobs)
	w.syncCache()
}

func (w *Watcher) rescanDir(dir string, handle func(path, id string)) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil //nolint:nilerr // best-effort walk
		}
		handle(path, locator.IDFromPath(path))
		return nil
	})
}
