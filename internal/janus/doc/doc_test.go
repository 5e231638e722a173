package doc

import "testing"

func TestValidLabel(t *testing.T) {
	valid := []string{"architecture", "api-notes", "release_1.2", "My Doc"}
	for _, l := range valid {
		if !ValidLabel(l) {
			t.Errorf("expected %q to be valid", l)
		}
	}
	invalid := []string{"", "  ", ".", "..", "a/b", "a\\b", "a\tb", "a\nb"}
	for _, l := range invalid {
		if ValidLabel(l) {
			t.Errorf("expected %q to be invalid", l)
		}
	}
}

func TestParseRenderRoundTrip(t *testing.T) {
	content := "---\ndescription: notes\ntags: [x, y]\n---\n# Architecture\n\nSome notes.\n"
	d, err := Parse([]byte(content), "architecture")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if d.Title != "Architecture" || d.Description != "notes" {
		t.Errorf("unexpected doc: %+v", d)
	}

	rendered, err := d.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	reparsed, err := Parse(rendered, "architecture")
	if err != nil {
		t.Fatalf("re-parse error = %v", err)
	}
	if reparsed.Title != d.Title || reparsed.Body != d.Body {
		t.Errorf("round-trip mismatch: got %+v, want %+v", reparsed, d)
	}
}

func TestChunk(t *testing.T) {
	body := "# Title\n\nintro\n\n## Setup\nstep one\n\n### Details\nmore\n\n## Usage\nhow to use\n"
	chunks := Chunk(body)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].HeadingPath[0] != "Setup" {
		t.Errorf("chunk0 path = %v", chunks[0].HeadingPath)
	}
	if len(chunks[1].HeadingPath) != 2 || chunks[1].HeadingPath[1] != "Details" {
		t.Errorf("chunk1 path = %v", chunks[1].HeadingPath)
	}
	if chunks[2].HeadingPath[0] != "Usage" {
		t.Errorf("chunk2 path = %v", chunks[2].HeadingPath)
	}
	if chunks[0].StartLine <= 0 || chunks[0].EndLine < chunks[0].StartLine {
		t.Errorf("invalid line range: %+v", chunks[0])
	}
}

func TestChunkNoHeadings(t *testing.T) {
	if got := Chunk("just a paragraph\nwith no headings\n"); len(got) != 0 {
		t.Errorf("expected no chunks, got %+v", got)
	}
}
