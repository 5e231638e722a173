package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/janus-md/janus/internal/janus/doc"
	"github.com/janus-md/janus/internal/janus/locator"
	"github.com/janus-md/janus/internal/janus/plan"
	"github.com/janus-md/janus/internal/janus/ticket"
)

// WarningKind classifies a non-fatal problem found during Init or a full
// rescan.
type WarningKind string

const (
	WarnParseError WarningKind = "parse_error"
	WarnIDMismatch WarningKind = "id_mismatch"
)

// Warning is one non-fatal problem collected during Init.
type Warning struct {
	Kind WarningKind
	Path string
	Err  error
}

func (w Warning) String() string {
	if w.Err != nil {
		return fmt.Sprintf("%s: %s: %v", w.Kind, w.Path, w.Err)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Path)
}

// Init scans items/, plans/, and docs/ under the store's root, parsing
// every .md file it finds. Individual file failures become warnings and
// do not abort the scan.
func (s *Store) Init() []Warning {
	var mu sync.Mutex
	var warnings []Warning
	addWarning := func(w Warning) {
		mu.Lock()
		warnings = append(warnings, w)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		s.scanTickets(addWarning)
	}()
	go func() {
		defer wg.Done()
		s.scanPlans(addWarning)
	}()
	go func() {
		defer wg.Done()
		s.scanDocs(addWarning)
	}()

	wg.Wait()
	return warnings
}

func listMarkdownFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func (s *Store) scanTickets(addWarning func(Warning)) {
	dir := locator.ItemsDir(s.root)
	files, err := listMarkdownFiles(dir)
	if err != nil {
		addWarning(Warning{Kind: WarnParseError, Path: dir, Err: err})
		return
	}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			addWarning(Warning{Kind: WarnParseError, Path: path, Err: err})
			continue
		}
		id := locator.IDFromPath(path)
		t, mismatch, err := ticket.Parse(content, id)
		if err != nil {
			addWarning(Warning{Kind: WarnParseError, Path: path, Err: err})
			continue
		}
		t.Path = path
		if mismatch {
			addWarning(Warning{Kind: WarnIDMismatch, Path: path})
		}
		s.UpsertTicket(t)
	}
}

func (s *Store) scanPlans(addWarning func(Warning)) {
	dir := locator.PlansDir(s.root)
	files, err := listMarkdownFiles(dir)
	if err != nil {
		addWarning(Warning{Kind: WarnParseError, Path: dir, Err: err})
		return
	}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			addWarning(Warning{Kind: WarnParseError, Path: path, Err: err})
			continue
		}
		id := locator.IDFromPath(path)
		p, mismatch, err := plan.Parse(content, id)
		if err != nil {
			addWarning(Warning{Kind: WarnParseError, Path: path, Err: err})
			continue
		}
		p.Path = path
		if mismatch {
			addWarning(Warning{Kind: WarnIDMismatch, Path: path})
		}
		s.UpsertPlan(p)
	}
}

func (s *Store) scanDocs(addWarning func(Warning)) {
	dir := locator.DocsDir(s.root)
	files, err := listMarkdownFiles(dir)
	if err != nil {
		addWarning(Warning{Kind: WarnParseError, Path: dir, Err: err})
		return
	}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			addWarning(Warning{Kind: WarnParseError, Path: path, Err: err})
			continue
		}
		label := locator.IDFromPath(path)
		d, err := doc.Parse(content, label)
		if err != nil {
			addWarning(Warning{Kind: WarnParseError, Path: path, Err: err})
			continue
		}
		s.UpsertDoc(d)
	}
}

// RefreshTicket re-reads a ticket's file from disk and upserts it,
// achieving immediate consistency after a self-initiated mutation without
// waiting for the watcher.
func (s *Store) RefreshTicket(id string) error {
	path := locator.TicketPath(s.root, id)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("refreshing ticket %s: %w", id, err)
	}
	t, _, err := ticket.Parse(content, id)
	if err != nil {
		return fmt.Errorf("refreshing ticket %s: %w", id, err)
	}
	t.Path = path
	s.UpsertTicket(t)
	return nil
}

// RefreshPlan re-reads a plan's file from disk and upserts it.
func (s *Store) RefreshPlan(id string) error {
	path := locator.PlanPath(s.root, id)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("refreshing plan %s: %w", id, err)
	}
	p, _, err := plan.Parse(content, id)
	if err != nil {
		return fmt.Errorf("refreshing plan %s: %w", id, err)
	}
	p.Path = path
	s.UpsertPlan(p)
	return nil
}
