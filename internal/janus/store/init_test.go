package store

import (
	"os"
	"testing"

	"github.com/janus-md/janus/internal/janus/locator"
)

func TestInitScansAndReportsMismatch(t *testing.T) {
	root := t.TempDir()
	itemsDir := locator.ItemsDir(root)
	if err := os.MkdirAll(itemsDir, 0o755); err != nil {
		t.Fatal(err)
	}

	good := "---\nid: j-good01\nuuid: u1\nstatus: new\ntype: task\npriority: 2\ncreated: 2024-01-01T00:00:00Z\n---\n# Good\n"
	mismatched := "---\nid: j-wrong0\nuuid: u2\nstatus: new\ntype: task\npriority: 2\ncreated: 2024-01-01T00:00:00Z\n---\n# Mismatch\n"
	broken := "not frontmatter at all"

	if err := os.WriteFile(itemsDir+"/j-good01.md", []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(itemsDir+"/j-real001.md", []byte(mismatched), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(itemsDir+"/j-broke01.md", []byte(broken), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(root)
	warnings := s.Init()

	if _, ok := s.GetTicket("j-good01"); !ok {
		t.Error("expected j-good01 to be loaded")
	}
	if got, ok := s.GetTicket("j-real001"); !ok || got.ID != "j-real001" {
		t.Errorf("expected filename to win for mismatched ticket, got %+v ok=%v", got, ok)
	}
	if _, ok := s.GetTicket("j-broke01"); ok {
		t.Error("expected unparsable ticket to be absent")
	}

	var hasMismatch, hasParseError bool
	for _, w := range warnings {
		switch w.Kind {
		case WarnIDMismatch:
			hasMismatch = true
		case WarnParseError:
			hasParseError = true
		}
	}
	if !hasMismatch {
		t.Error("expected an ID mismatch warning")
	}
	if !hasParseError {
		t.Error("expected a parse error warning")
	}
}

func TestInitEmptyRoot(t *testing.T) {
	s := New(t.TempDir())
	warnings := s.Init()
	if len(warnings) != 0 {
		t.Errorf("expected no warnings for empty root, got %v", warnings)
	}
	if len(s.AllTickets()) != 0 {
		t.Error("expected no tickets")
	}
}
