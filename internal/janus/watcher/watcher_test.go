package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/janus-md/janus/internal/janus/cache"
	"github.com/janus-md/janus/internal/janus/embedding"
	"github.com/janus-md/janus/internal/janus/locator"
	"github.com/janus-md/janus/internal/janus/store"
	"github.com/janus-md/janus/internal/janus/ticket"
)

// countingEmbedder wraps a real embedder and records the size of every
// EmbedBatch call it receives, so tests can assert on batching behavior
// without depending on embedding content.
type countingEmbedder struct {
	embedding.Embedder

	mu         sync.Mutex
	batchSizes []int
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.batchSizes = append(c.batchSizes, len(texts))
	c.mu.Unlock()
	return c.Embedder.EmbedBatch(ctx, texts)
}

func (c *countingEmbedder) calls() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.batchSizes...)
}

func mustEnsureDirs(t *testing.T, root string) {
	t.Helper()
	if err := locator.EnsureDirs(root); err != nil {
		t.Fatal(err)
	}
}

func writeTicketFile(t *testing.T, root, id, body string) {
	t.Helper()
	tk := &ticket.Ticket{
		ID:       id,
		Status:   ticket.StatusNew,
		Priority: 2,
		Created:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Title:    "t",
		Body:     body,
	}
	data, err := tk.Render()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(locator.TicketPath(root, id), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeRaw(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// startTestWatcher bypasses the package singleton so each test runs an
// independent Watcher; it stops the watcher and clears the singleton slot
// on cleanup.
func startTestWatcher(t *testing.T, root string, st *store.Store, opts ...Option) *Watcher {
	t.Helper()
	singletonMu.Lock()
	singleton = nil
	singletonStore = nil
	singletonMu.Unlock()

	opts = append([]Option{withDebounce(20 * time.Millisecond)}, opts...)
	w, err := Start(root, st, opts...)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func waitForTicket(t *testing.T, st *store.Store, id string, timeout time.Duration) *ticket.Ticket {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if tk, ok := st.GetTicket(id); ok {
			return tk
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ticket %s never appeared in store within %s", id, timeout)
	return nil
}

func waitUntilGone(t *testing.T, st *store.Store, id string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, ok := st.GetTicket(id); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ticket %s was never removed from store within %s", id, timeout)
}

func TestWatcherPicksUpNewTicket(t *testing.T) {
	root := t.TempDir()
	mustEnsureDirs(t, root)
	st := store.New(root)
	startTestWatcher(t, root, st)

	writeTicketFile(t, root, "j-aaaaaa", "hello")

	tk := waitForTicket(t, st, "j-aaaaaa", time.Second)
	if tk.Body != "hello" {
		t.Errorf("Body = %q, want %q", tk.Body, "hello")
	}
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	root := t.TempDir()
	mustEnsureDirs(t, root)
	st := store.New(root)
	startTestWatcher(t, root, st)

	events, unsubscribe := st.Subscribe()
	defer unsubscribe()

	path := locator.TicketPath(root, "j-bbbbbb")
	for i := 0; i < 5; i++ {
		writeTicketFile(t, root, "j-bbbbbb", "rev")
		time.Sleep(2 * time.Millisecond)
	}
	_ = path

	waitForTicket(t, st, "j-bbbbbb", time.Second)

	// Drain whatever arrived, then make sure nothing further trickles in
	// from the debounce window reopening across each write.
	count := 0
	timeout := time.After(200 * time.Millisecond)
drain:
	for {
		select {
		case <-events:
			count++
		case <-timeout:
			break drain
		}
	}
	if count > 2 {
		t.Errorf("got %d broadcast events for a single debounced burst, want at most 2", count)
	}
}

func TestWatcherRemovalClearsTicket(t *testing.T) {
	root := t.TempDir()
	mustEnsureDirs(t, root)
	st := store.New(root)
	startTestWatcher(t, root, st)

	writeTicketFile(t, root, "j-cccccc", "body")
	waitForTicket(t, st, "j-cccccc", time.Second)

	if err := os.Remove(locator.TicketPath(root, "j-cccccc")); err != nil {
		t.Fatal(err)
	}
	waitUntilGone(t, st, "j-cccccc", time.Second)

	if _, ok := st.GetEmbedding("j-cccccc"); ok {
		t.Error("expected embedding to be removed alongside the ticket")
	}
}

func TestWatcherRetriesInvalidThenValidFile(t *testing.T) {
	root := t.TempDir()
	mustEnsureDirs(t, root)
	st := store.New(root)
	startTestWatcher(t, root, st)

	path := locator.TicketPath(root, "j-dddddd")
	writeRaw(t, path, "not: [valid yaml frontmatter\n---\nbody")

	time.Sleep(100 * time.Millisecond)
	if _, ok := st.GetTicket("j-dddddd"); ok {
		t.Fatal("invalid file should not have produced a ticket")
	}

	writeTicketFile(t, root, "j-dddddd", "now valid")

	tk := waitForTicket(t, st, "j-dddddd", 2*time.Second)
	if tk.Body != "now valid" {
		t.Errorf("Body = %q, want %q", tk.Body, "now valid")
	}
}

func TestWatcherMarkWrittenSuppressesSelfEcho(t *testing.T) {
	root := t.TempDir()
	mustEnsureDirs(t, root)
	st := store.New(root)
	w := startTestWatcher(t, root, st)

	path := locator.TicketPath(root, "j-eeeeee")
	w.MarkWritten(path)
	writeTicketFile(t, root, "j-eeeeee", "self-write")

	time.Sleep(150 * time.Millisecond)
	if _, ok := st.GetTicket("j-eeeeee"); ok {
		t.Error("expected self-write suppression to prevent reprocessing within TTL")
	}
}

func TestWatcherRescanOnPendingOverflow(t *testing.T) {
	root := t.TempDir()
	mustEnsureDirs(t, root)
	st := store.New(root)
	w := startTestWatcher(t, root, st)

	for i := 0; i < pendingCap+10; i++ {
		id := "j-" + filepath.Base(time.Now().Format("150405.000000000")) + "a"
		writeTicketFile(t, root, id, "x")
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if !w.rescanNeeded.Load() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStartIdempotentForSameStore(t *testing.T) {
	root := t.TempDir()
	mustEnsureDirs(t, root)
	st := store.New(root)
	w1 := startTestWatcher(t, root, st)

	w2, err := Start(root, st)
	if err != nil {
		t.Fatalf("second Start() with same store error = %v", err)
	}
	if w1 != w2 {
		t.Error("expected Start() to return the existing Watcher for the same store")
	}
}

func TestStartRejectsDifferentStore(t *testing.T) {
	root := t.TempDir()
	mustEnsureDirs(t, root)
	st := store.New(root)
	startTestWatcher(t, root, st)

	other := store.New(t.TempDir())
	_, err := Start(t.TempDir(), other)
	if err != ErrAlreadyBound {
		t.Errorf("Start() error = %v, want ErrAlreadyBound", err)
	}
}

func TestWatcherEmbedsChangedTicket(t *testing.T) {
	root := t.TempDir()
	mustEnsureDirs(t, root)
	st := store.New(root)
	startTestWatcher(t, root, st, WithEmbedder(embedding.NewLocalEmbedder()))

	writeTicketFile(t, root, "j-ffffff", "embed me")
	waitForTicket(t, st, "j-ffffff", time.Second)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := st.GetEmbedding("j-ffffff"); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("embedding for j-ffffff never appeared")
}

func TestWatcherBatchesEmbeddingCallsWithinLimit(t *testing.T) {
	root := t.TempDir()
	mustEnsureDirs(t, root)
	st := store.New(root)
	ce := &countingEmbedder{Embedder: embedding.NewLocalEmbedder()}
	startTestWatcher(t, root, st, WithEmbedder(ce), WithEmbedBatchSize(2))

	for i := 0; i < 5; i++ {
		writeTicketFile(t, root, "j-"+string(rune('a'+i))+"aaaaa", "body")
		time.Sleep(2 * time.Millisecond)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		sum := 0
		for _, n := range ce.calls() {
			sum += n
		}
		if sum >= 5 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	for _, n := range ce.calls() {
		if n > 2 {
			t.Errorf("EmbedBatch called with %d texts, want at most 2 (embedBatchSize)", n)
		}
	}
}

func TestWatcherSyncsCacheAfterChange(t *testing.T) {
	root := t.TempDir()
	mustEnsureDirs(t, root)
	st := store.New(root)

	c, err := cache.Open(filepath.Join(root, ".cache.db"))
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	defer c.Close()

	startTestWatcher(t, root, st, WithCache(c))

	writeTicketFile(t, root, "j-gggggg", "mirrored")
	waitForTicket(t, st, "j-gggggg", time.Second)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok, _ := c.Payload("tickets", "j-gggggg"); ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("cache was never synced with the new ticket")
}
