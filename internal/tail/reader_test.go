package tail

import (
	"os"
	"path/filepath"
	"testing"
)

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append %s: %v", path, err)
	}
}

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = string(l.Text)
	}
	return out
}

func TestReadNewIncremental(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	r := NewReader()

	appendFile(t, path, "one\ntwo\n")
	lines, err := r.ReadNew(path)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if got := texts(lines); len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("first read lines = %v", got)
	}
	if lines[0].Offset != 0 || lines[1].Offset != 4 {
		t.Errorf("offsets = %d, %d", lines[0].Offset, lines[1].Offset)
	}

	appendFile(t, path, "three\n")
	lines, err = r.ReadNew(path)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if got := texts(lines); len(got) != 1 || got[0] != "three" {
		t.Fatalf("second read lines = %v", got)
	}
	if lines[0].Offset != 8 {
		t.Errorf("offset = %d, want 8", lines[0].Offset)
	}
}

func TestReadNewNoGrowth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	r := NewReader()
	appendFile(t, path, "one\n")

	if _, err := r.ReadNew(path); err != nil {
		t.Fatal(err)
	}
	lines, err := r.ReadNew(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("unchanged file returned %v", texts(lines))
	}
}

func TestPartialLineHeldUntilComplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	r := NewReader()

	appendFile(t, path, `{"event_type":"tool_`)
	lines, err := r.ReadNew(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Fatalf("partial line emitted early: %v", texts(lines))
	}

	appendFile(t, path, "start\"}\n")
	lines, err = r.ReadNew(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || string(lines[0].Text) != `{"event_type":"tool_start"}` {
		t.Fatalf("completed line = %v", texts(lines))
	}
	if lines[0].Offset != 0 {
		t.Errorf("completed line offset = %d, want start of line", lines[0].Offset)
	}
}

func TestTruncationResetsCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	r := NewReader()

	appendFile(t, path, "a\nb\nc\nd\ne\n")
	lines, _ := r.ReadNew(path)
	if len(lines) != 5 {
		t.Fatalf("initial lines = %d", len(lines))
	}

	if err := os.WriteFile(path, []byte("f\ng\n"), 0644); err != nil {
		t.Fatal(err)
	}
	lines, err := r.ReadNew(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := texts(lines); len(got) != 2 || got[0] != "f" || got[1] != "g" {
		t.Fatalf("post-truncation lines = %v", got)
	}
}

func TestRotationResetsCursor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.jsonl")
	r := NewReader()

	appendFile(t, path, "old-1\nold-2\n")
	if _, err := r.ReadNew(path); err != nil {
		t.Fatal(err)
	}

	// Rotate: remove and recreate with equal-or-larger content under a
	// new inode.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	appendFile(t, path, "new-1\nnew-2\nnew-3\n")

	lines, err := r.ReadNew(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := texts(lines); len(got) != 3 || got[0] != "new-1" {
		t.Fatalf("post-rotation lines = %v", got)
	}
}

func TestMissingFileDropsCursor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.jsonl")
	r := NewReader()

	appendFile(t, path, "one\n")
	if _, err := r.ReadNew(path); err != nil {
		t.Fatal(err)
	}
	os.Remove(path)

	lines, err := r.ReadNew(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("missing file returned lines: %v", texts(lines))
	}

	appendFile(t, path, "fresh\n")
	lines, _ = r.ReadNew(path)
	if got := texts(lines); len(got) != 1 || got[0] != "fresh" {
		t.Errorf("recreated file lines = %v", got)
	}
}

func TestCRLFLinesStripped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	r := NewReader()

	appendFile(t, path, "one\r\ntwo\r\n")
	lines, _ := r.ReadNew(path)
	if got := texts(lines); len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("lines = %v", got)
	}
}

func TestScanDirReadsAllJSONL(t *testing.T) {
	dir := t.TempDir()
	appendFile(t, filepath.Join(dir, "b.jsonl"), "b1\n")
	appendFile(t, filepath.Join(dir, "a.jsonl"), "a1\na2\n")
	appendFile(t, filepath.Join(dir, "notes.txt"), "ignored\n")
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	appendFile(t, filepath.Join(sub, "c.jsonl"), "c1\n")

	r := NewReader()
	lines, err := r.ScanDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := texts(lines)
	if len(got) != 4 {
		t.Fatalf("lines = %v", got)
	}
	// Path order is stable: a.jsonl, b.jsonl, nested/c.jsonl.
	if got[0] != "a1" || got[1] != "a2" || got[2] != "b1" || got[3] != "c1" {
		t.Errorf("line order = %v", got)
	}

	// A second scan ingests nothing new.
	lines, _ = r.ScanDir(dir)
	if len(lines) != 0 {
		t.Errorf("rescan returned %v", texts(lines))
	}
}

func TestScanDirMissingDir(t *testing.T) {
	r := NewReader()
	if _, err := r.ScanDir(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Errorf("missing dir should not be fatal, got %v", err)
	}
}
