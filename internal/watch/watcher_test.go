package watch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func startWatcher(t *testing.T, cfg Config) *Watcher {
	t.Helper()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func waitEvent(t *testing.T, w *Watcher, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		if !ok {
			t.Fatal("events channel closed")
		}
		return ev
	case <-time.After(timeout):
		t.Fatal("timed out waiting for watch event")
	}
	return Event{}
}

func drain(w *Watcher, d time.Duration) []Event {
	var evs []Event
	deadline := time.After(d)
	for {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				return evs
			}
			evs = append(evs, ev)
		case <-deadline:
			return evs
		}
	}
}

func TestNewRequiresPlanPath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty plan path")
	}
}

func TestPlanWriteEmitsPlanChanged(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "TASKS.md")
	if err := os.WriteFile(planPath, []byte("# Phase 0: X\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w := startWatcher(t, Config{PlanPath: planPath, Debounce: 20 * time.Millisecond})

	if err := os.WriteFile(planPath, []byte("# Phase 0: Y\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, w, 2*time.Second)
	if ev.Kind != KindPlanChanged {
		t.Errorf("kind = %v", ev.Kind)
	}
}

// Replace-by-rename is how editors and the plan writer both save; the
// watcher must see it as a plan change.
func TestPlanRenameOverEmitsPlanChanged(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "TASKS.md")
	if err := os.WriteFile(planPath, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	w := startWatcher(t, Config{PlanPath: planPath, Debounce: 20 * time.Millisecond})

	tmp := planPath + ".tmp"
	if err := os.WriteFile(tmp, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, planPath); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Kind == KindPlanChanged {
				return
			}
		case <-deadline:
			t.Fatal("no plan change after rename")
		}
	}
}

func TestDebounceCoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "TASKS.md")
	if err := os.WriteFile(planPath, []byte("v0"), 0644); err != nil {
		t.Fatal(err)
	}

	w := startWatcher(t, Config{PlanPath: planPath, Debounce: 150 * time.Millisecond})

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(planPath, []byte("burst"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	evs := drain(w, time.Second)
	planEvents := 0
	for _, ev := range evs {
		if ev.Kind == KindPlanChanged {
			planEvents++
		}
	}
	if planEvents != 1 {
		t.Errorf("burst produced %d plan events, want 1", planEvents)
	}
}

func TestJSONLCreateAndGrowth(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "TASKS.md")
	if err := os.WriteFile(planPath, []byte("# X\n"), 0644); err != nil {
		t.Fatal(err)
	}
	eventsDir := filepath.Join(dir, "events")
	if err := os.MkdirAll(eventsDir, 0755); err != nil {
		t.Fatal(err)
	}

	w := startWatcher(t, Config{
		PlanPath:  planPath,
		EventDirs: []string{eventsDir},
		Debounce:  20 * time.Millisecond,
	})

	target := filepath.Join(eventsDir, "session.jsonl")
	if err := os.WriteFile(target, []byte(`{"event_type":"agent_start"}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, w, 2*time.Second)
	if ev.Kind != KindEventFileChanged || ev.Path != target {
		t.Errorf("event = %+v", ev)
	}
}

func TestNonJSONLIgnored(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "TASKS.md")
	if err := os.WriteFile(planPath, []byte("# X\n"), 0644); err != nil {
		t.Fatal(err)
	}
	eventsDir := filepath.Join(dir, "events")
	if err := os.MkdirAll(eventsDir, 0755); err != nil {
		t.Fatal(err)
	}

	w := startWatcher(t, Config{
		PlanPath:  planPath,
		EventDirs: []string{eventsDir},
		Debounce:  20 * time.Millisecond,
	})

	if err := os.WriteFile(filepath.Join(eventsDir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, ev := range drain(w, 400*time.Millisecond) {
		if ev.Kind == KindEventFileChanged {
			t.Errorf("non-jsonl file produced %+v", ev)
		}
	}
}

func TestMissingEventsDirTolerated(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "TASKS.md")
	if err := os.WriteFile(planPath, []byte("# X\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w := startWatcher(t, Config{
		PlanPath:  planPath,
		EventDirs: []string{filepath.Join(dir, "does-not-exist")},
	})
	_ = w // starting with a missing events dir must not fail
}

func TestUnderDir(t *testing.T) {
	tests := []struct {
		child, parent string
		want          bool
	}{
		{"/a/b/c.jsonl", "/a/b", true},
		{"/a/b/nested/c.jsonl", "/a/b", true},
		{"/a/other/c.jsonl", "/a/b", false},
		{"/a/b", "/a/b/nested", false},
	}
	for _, tt := range tests {
		if got := underDir(tt.child, tt.parent); got != tt.want {
			t.Errorf("underDir(%q, %q) = %v, want %v", tt.child, tt.parent, got, tt.want)
		}
	}
}

// When the event source dies and every reconnect attempt fails, the
// watcher must emit a terminal WatchError and stop. This is the path
// the CLI maps to its fatal-watcher exit code.
func TestReconnectExhaustionEmitsWatchError(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "TASKS.md")
	if err := os.WriteFile(planPath, []byte("# X\n"), 0644); err != nil {
		t.Fatal(err)
	}

	oldBackoff := reconnectBackoff
	reconnectBackoff = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	defer func() { reconnectBackoff = oldBackoff }()

	w := startWatcher(t, Config{PlanPath: planPath, Debounce: 10 * time.Millisecond})

	// Every reconnect attempt fails from here on.
	w.newWatcher = func() (*fsnotify.Watcher, error) {
		return nil, errors.New("inotify instances exhausted")
	}

	// Kill the live event source; the run loop sees its channels close
	// and enters reconnect.
	w.mu.Lock()
	fw := w.fw
	w.mu.Unlock()
	fw.Close()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				t.Fatal("events channel closed without a WatchError")
			}
			if ev.Kind != KindWatchError {
				continue // stray notifications from setup are fine
			}
			if ev.Err == nil {
				t.Error("WatchError carries no error")
			}
			// After the terminal event the channel drains and closes.
			select {
			case _, ok := <-w.Events():
				if ok {
					t.Error("events after terminal WatchError")
				}
			case <-time.After(time.Second):
				t.Error("events channel not closed after WatchError")
			}
			return
		case <-deadline:
			t.Fatal("no WatchError after reconnect exhaustion")
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "TASKS.md")
	if err := os.WriteFile(planPath, []byte("# X\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w := startWatcher(t, Config{PlanPath: planPath})
	if err := w.Close(); err != nil {
		t.Errorf("first close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
