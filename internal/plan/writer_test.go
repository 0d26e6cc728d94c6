package plan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writePlanFile(t *testing.T, content string) *ParsedPlan {
	t.Helper()
	path := filepath.Join(t.TempDir(), "TASKS.md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	p, err := ParseFile(path)
	if err != nil {
		t.Fatalf("parse plan: %v", err)
	}
	return p
}

func TestSetStatusRoundTrip(t *testing.T) {
	content := "# Phase 0: Setup\n\n### [ ] P0-T0.1: init\n- **agent**: @backend\n"
	p := writePlanFile(t, content)

	if err := SetStatus(p, "P0-T0.1", StatusCompleted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	after, err := os.ReadFile(p.Path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "# Phase 0: Setup\n\n### [x] P0-T0.1: init\n- **agent**: @backend\n"
	if string(after) != want {
		t.Errorf("file after write:\n%q\nwant:\n%q", after, want)
	}

	reparsed := Parse(after)
	if got := reparsed.FindTask("P0-T0.1").Status; got != StatusCompleted {
		t.Errorf("reparsed status = %v", got)
	}
}

// Splicing a tag of a different length must leave every byte outside the
// range intact, including CRLF line endings.
func TestSetStatusLongToShortPreservesBytes(t *testing.T) {
	content := "# Phase 1: Data\r\n\r\n### [InProgress] P1-T1: watcher\r\n- body line\r\n\r\n### [x] P1-T2: done\r\n"
	p := writePlanFile(t, content)

	if err := SetStatus(p, "P1-T1", StatusFailed); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	after, _ := os.ReadFile(p.Path)
	want := "# Phase 1: Data\r\n\r\n### [!] P1-T1: watcher\r\n- body line\r\n\r\n### [x] P1-T2: done\r\n"
	if string(after) != want {
		t.Errorf("file after write:\n%q\nwant:\n%q", after, want)
	}
}

func TestSetStatusEveryStatusReparses(t *testing.T) {
	for _, next := range []Status{StatusPending, StatusInProgress, StatusCompleted, StatusFailed, StatusBlocked} {
		p := writePlanFile(t, "# Phase 0: X\n\n### [ ] T1: task\n")
		if err := SetStatus(p, "T1", next); err != nil {
			t.Fatalf("SetStatus(%v): %v", next, err)
		}
		after, _ := os.ReadFile(p.Path)
		if got := Parse(after).FindTask("T1").Status; got != next {
			t.Errorf("status after splice = %v, want %v", got, next)
		}
	}
}

func TestSetStatusUnknownTask(t *testing.T) {
	p := writePlanFile(t, "# Phase 0: X\n\n### [ ] T1: task\n")

	err := SetStatus(p, "NOPE", StatusCompleted)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSetStatusStaleAfterExternalRewrite(t *testing.T) {
	p := writePlanFile(t, "# Phase 0: X\n\n### [!] T1: task\n")

	// The heading moves, so the captured range now points at other bytes.
	moved := "# Phase 0: X\n\nintro paragraph\n\n### [!] T1: task\n"
	if err := os.WriteFile(p.Path, []byte(moved), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	err := SetStatus(p, "T1", StatusInProgress)
	if !errors.Is(err, ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}

	after, _ := os.ReadFile(p.Path)
	if string(after) != moved {
		t.Error("stale write must not modify the file")
	}
}

func TestSetStatusStaleOnTruncatedFile(t *testing.T) {
	p := writePlanFile(t, "# Phase 0: X\n\n### [ ] T1: task\n")

	if err := os.WriteFile(p.Path, []byte("# gone\n"), 0644); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	if err := SetStatus(p, "T1", StatusCompleted); !errors.Is(err, ErrStale) {
		t.Errorf("err = %v, want ErrStale", err)
	}
}

func TestSetStatusMissingFile(t *testing.T) {
	p := writePlanFile(t, "# Phase 0: X\n\n### [ ] T1: task\n")
	os.Remove(p.Path)

	err := SetStatus(p, "T1", StatusCompleted)
	if err == nil || errors.Is(err, ErrStale) || errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want plain I/O error", err)
	}
}

func TestSetStatusLeavesNoTempFile(t *testing.T) {
	p := writePlanFile(t, "# Phase 0: X\n\n### [ ] T1: task\n")

	if err := SetStatus(p, "T1", StatusBlocked); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := os.Stat(p.Path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after rename")
	}
}
