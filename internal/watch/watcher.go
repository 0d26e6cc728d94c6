// Package watch emits debounced change notifications for the plan file
// and the JSONL event directories.
//
// The plan file is watched through its parent directory (editors and the
// plan writer both replace the file by rename, which drops a direct
// watch), filtered back to the exact path. Event directories are watched
// recursively for *.jsonl creation and modification.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/claudeck/claudeck/internal/logging"
)

// Kind classifies a change notification.
type Kind int

const (
	// KindPlanChanged means the plan file was written or replaced.
	KindPlanChanged Kind = iota
	// KindEventFileChanged means a *.jsonl file was created or grew;
	// Path names the file.
	KindEventFileChanged
	// KindRescan asks the consumer to re-read everything; emitted after
	// a successful watcher reconnect, when notifications may have been
	// missed.
	KindRescan
	// KindWatchError is terminal: reconnect attempts are exhausted and
	// the watcher has stopped. Err carries the last failure.
	KindWatchError
)

func (k Kind) String() string {
	switch k {
	case KindPlanChanged:
		return "plan_changed"
	case KindEventFileChanged:
		return "event_file_changed"
	case KindRescan:
		return "rescan"
	case KindWatchError:
		return "watch_error"
	default:
		return "unknown"
	}
}

// Event is one debounced change notification.
type Event struct {
	Kind Kind
	Path string
	At   time.Time
	Err  error
}

// Config describes what to watch.
type Config struct {
	// PlanPath is the task plan file. Its parent directory must exist.
	PlanPath string
	// EventDirs are directories scanned recursively for *.jsonl files.
	// Missing directories are skipped and picked up on reconnect.
	EventDirs []string
	// Debounce coalesces raw notifications per target. Zero means the
	// 100 ms default.
	Debounce time.Duration
	Logger   *logging.Logger
}

const defaultDebounce = 100 * time.Millisecond

// Reconnect backoff schedule. Exhausting it makes the watcher terminal.
var reconnectBackoff = []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, time.Second}

// Watcher owns the fsnotify helper goroutine and the debounce loop.
type Watcher struct {
	cfg Config
	log *logging.Logger

	out      chan Event
	done     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	fw       *fsnotify.Watcher
	closed   bool
	planPath string

	// newWatcher opens the native event source. Tests substitute a
	// failing opener to drive the reconnect path.
	newWatcher func() (*fsnotify.Watcher, error)
}

// New validates the config and prepares a watcher. Start must be called
// before events flow.
func New(cfg Config) (*Watcher, error) {
	if cfg.PlanPath == "" {
		return nil, errors.New("watch: plan path is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NopLogger()
	}
	abs, err := filepath.Abs(cfg.PlanPath)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve plan path: %w", err)
	}
	return &Watcher{
		cfg:        cfg,
		log:        log,
		out:        make(chan Event, 256),
		done:       make(chan struct{}),
		planPath:   abs,
		newWatcher: fsnotify.NewWatcher,
	}, nil
}

// Events is the notification sink consumed by the event loop.
func (w *Watcher) Events() <-chan Event {
	return w.out
}

// Start connects to the native FS event source and launches the
// debounce loop.
func (w *Watcher) Start() error {
	fw, err := w.connect()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.fw = fw
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(fw)
	return nil
}

// Close stops the watcher and its helper goroutine. The events channel
// is closed once the loop drains.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	fw := w.fw
	w.mu.Unlock()

	var err error
	if fw != nil {
		err = fw.Close()
	}
	w.wg.Wait()
	return err
}

// connect creates an fsnotify watcher and registers every target.
func (w *Watcher) connect() (*fsnotify.Watcher, error) {
	fw, err := w.newWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}

	planDir := filepath.Dir(w.planPath)
	if err := fw.Add(planDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch: add %s: %w", planDir, err)
	}

	for _, dir := range w.cfg.EventDirs {
		if err := addRecursive(fw, dir); err != nil {
			w.log.Warn("event dir not watchable", "dir", dir, "error", err)
		}
	}
	return fw, nil
}

// addRecursive registers dir and all its subdirectories. fsnotify only
// watches directories, so new subdirectories are added as they appear in
// the event stream.
func addRecursive(fw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			_ = fw.Add(path)
		}
		return nil
	})
}

// run is the debounce loop. It owns fw until a watcher failure, then
// hands off to reconnect.
func (w *Watcher) run(fw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer close(w.out)

	// One pending slot per target keeps a write burst to a single emitted
	// event; the timestamp tracks the last raw notification.
	pending := make(map[string]Event)
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return

		case raw, ok := <-fw.Events:
			if !ok {
				if fw = w.reconnect(); fw == nil {
					return
				}
				continue
			}
			w.track(fw, raw, pending)
			if len(pending) > 0 {
				timer.Reset(w.cfg.Debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				if fw = w.reconnect(); fw == nil {
					return
				}
				continue
			}
			w.log.Warn("watcher error", "error", err)
			fw.Close()
			if fw = w.reconnect(); fw == nil {
				return
			}

		case <-timer.C:
			for key, ev := range pending {
				delete(pending, key)
				w.emit(ev)
			}
		}
	}
}

// track classifies one raw notification into the pending map.
func (w *Watcher) track(fw *fsnotify.Watcher, raw fsnotify.Event, pending map[string]Event) {
	if raw.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	now := time.Now()
	path := raw.Name

	if samePath(path, w.planPath) {
		pending["plan"] = Event{Kind: KindPlanChanged, Path: w.planPath, At: now}
		return
	}

	for _, dir := range w.cfg.EventDirs {
		if !underDir(path, dir) {
			continue
		}
		if raw.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				_ = addRecursive(fw, path)
				return
			}
		}
		if strings.HasSuffix(path, ".jsonl") {
			pending[path] = Event{Kind: KindEventFileChanged, Path: path, At: now}
		}
		return
	}
}

// reconnect re-establishes the native watcher with exponential backoff.
// On success a rescan event covers anything missed while disconnected.
// Returns nil after exhausting the schedule, with a terminal WatchError
// emitted.
func (w *Watcher) reconnect() *fsnotify.Watcher {
	var lastErr error
	for attempt, backoff := range reconnectBackoff {
		select {
		case <-w.done:
			return nil
		case <-time.After(backoff):
		}

		fw, err := w.connect()
		if err != nil {
			lastErr = err
			w.log.Warn("watcher reconnect failed", "attempt", attempt+1, "error", err)
			continue
		}

		w.mu.Lock()
		w.fw = fw
		w.mu.Unlock()
		w.log.Info("watcher reconnected", "attempt", attempt+1)
		w.emit(Event{Kind: KindRescan, At: time.Now()})
		return fw
	}

	if lastErr == nil {
		lastErr = errors.New("watch: event source closed")
	}
	w.emit(Event{Kind: KindWatchError, At: time.Now(), Err: lastErr})
	return nil
}

func (w *Watcher) emit(ev Event) {
	select {
	case w.out <- ev:
	case <-w.done:
	}
}

// samePath compares paths, falling back to symlink resolution so
// /var vs /private/var style aliases still match.
func samePath(a, b string) bool {
	if a == b {
		return true
	}
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ra, err1 := filepath.EvalSymlinks(a)
	rb, err2 := filepath.EvalSymlinks(b)
	return err1 == nil && err2 == nil && ra == rb
}

// underDir reports whether child is inside parent.
func underDir(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
