// Package tui implements the dashboard's event loop and renderer on top
// of Bubble Tea. The model multiplexes key input, watcher notifications
// and a 1 Hz tick; all state mutation goes through the single-writer
// store, and rendering only ever reads snapshots.
package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/claudeck/claudeck/internal/classify"
	"github.com/claudeck/claudeck/internal/config"
	"github.com/claudeck/claudeck/internal/hooks"
	"github.com/claudeck/claudeck/internal/logging"
	"github.com/claudeck/claudeck/internal/plan"
	"github.com/claudeck/claudeck/internal/state"
	"github.com/claudeck/claudeck/internal/tail"
	"github.com/claudeck/claudeck/internal/watch"
)

// ErrWatcherFatal marks a shutdown caused by exhausted watcher
// reconnects. The CLI maps it to its own exit code.
var ErrWatcherFatal = errors.New("file watcher failed")

type rowKind int

const (
	rowPhase rowKind = iota
	rowTask
)

// row is one visible line of the task pane: a phase header or a task.
type row struct {
	kind     rowKind
	phaseIdx int
	taskIdx  int
}

type viewMode int

const (
	viewTree viewMode = iota
	viewGantt
)

// retryPrompt is the state of the retry confirmation modal.
type retryPrompt struct {
	TaskID   string
	TaskName string
	Excerpt  string
	Analysis classify.Analysis
	HasError bool
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	store       *state.Store
	reader      *tail.Reader
	watchEvents <-chan watch.Event
	paths       config.Paths
	log         *logging.Logger

	snap   state.Snapshot
	rows   []row
	cursor int

	keys     KeyMap
	help     help.Model
	mode     viewMode
	showHelp bool
	retry    *retryPrompt

	statusMsg string
	width     int
	height    int
	now       time.Time

	quitting bool
	fatal    error
}

// NewModel wires the model and takes a first snapshot of the store. The
// watcher must already be started; anything applied to the store later
// is visible after the next refresh.
func NewModel(store *state.Store, reader *tail.Reader, events <-chan watch.Event, paths config.Paths, log *logging.Logger) Model {
	if log == nil {
		log = logging.NopLogger()
	}
	m := Model{
		store:       store,
		reader:      reader,
		watchEvents: events,
		paths:       paths,
		log:         log,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		now:         time.Now(),
	}
	m.refresh()
	return m
}

// Fatal returns the terminal error, if the loop stopped on one.
func (m Model) Fatal() error { return m.fatal }

// Init starts the tick and the watcher pump.
func (m Model) Init() tea.Cmd {
	if m.watchEvents == nil {
		return tickCmd()
	}
	return tea.Batch(tickCmd(), waitWatch(m.watchEvents))
}

// refresh re-snapshots the store and rebuilds the visible rows, keeping
// the cursor on the selected task when it still exists.
func (m *Model) refresh() {
	m.snap = m.store.Snapshot()
	m.rows = m.rows[:0]
	for pi := range m.snap.Phases {
		m.rows = append(m.rows, row{kind: rowPhase, phaseIdx: pi})
		if m.snap.Phases[pi].Collapsed {
			continue
		}
		for ti := range m.snap.Phases[pi].Tasks {
			m.rows = append(m.rows, row{kind: rowTask, phaseIdx: pi, taskIdx: ti})
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if id := m.snap.SelectedTaskID; id != "" {
		for i, r := range m.rows {
			if r.kind == rowTask && m.taskAt(r).ID == id {
				m.cursor = i
				break
			}
		}
	}
}

func (m *Model) taskAt(r row) *state.TaskView {
	return &m.snap.Phases[r.phaseIdx].Tasks[r.taskIdx]
}

// selectedTask returns the task under the cursor, or nil on a phase row.
func (m *Model) selectedTask() *state.TaskView {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	r := m.rows[m.cursor]
	if r.kind != rowTask {
		return nil
	}
	return m.taskAt(r)
}

// selectedPhaseID returns the phase id of the row under the cursor.
func (m *Model) selectedPhaseID() string {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return ""
	}
	return m.snap.Phases[m.rows[m.cursor].phaseIdx].ID
}

// rememberSelection pushes the cursor position into the store so the
// hint survives plan reloads.
func (m *Model) rememberSelection() {
	if t := m.selectedTask(); t != nil {
		m.store.Select(t.ID)
	} else {
		m.store.Select("")
	}
}

// reloadPlan re-parses the plan file and applies it to the store.
func (m *Model) reloadPlan() {
	parsed, err := plan.ParseFile(m.paths.TasksPath)
	if err != nil {
		m.log.Warn("plan reload failed", "path", m.paths.TasksPath, "error", err)
		return
	}
	m.store.ApplyPlan(parsed)
	m.log.Debug("plan reloaded", "tasks", parsed.TotalTasks(), "warnings", len(parsed.Warnings))
}

// ingestFile tails one event file and applies the new events.
func (m *Model) ingestFile(path string) {
	lines, err := m.reader.ReadNew(path)
	if err != nil {
		m.log.Warn("event tail failed", "path", path, "error", err)
		return
	}
	m.applyLines(lines)
}

// rescanEvents re-reads every known event directory through the cursor
// machinery. Already-ingested bytes are skipped.
func (m *Model) rescanEvents() {
	for _, dir := range []string{m.paths.HooksDir, m.paths.EventsDir} {
		if dir == "" {
			continue
		}
		lines, err := m.reader.ScanDir(dir)
		if err != nil {
			m.log.Warn("event rescan failed", "dir", dir, "error", err)
			continue
		}
		m.applyLines(lines)
	}
}

func (m *Model) applyLines(lines []tail.Line) {
	malformed := 0
	for _, line := range lines {
		ev, err := hooks.ParseLine(line.Text)
		if err != nil {
			malformed++
			continue
		}
		m.store.ApplyEvent(ev, line.Offset)
	}
	if malformed > 0 {
		m.store.CountMalformed(malformed)
	}
}

// openRetry arms the retry modal for the selected task if it is in a
// retryable state.
func (m *Model) openRetry() {
	task := m.selectedTask()
	if task == nil {
		return
	}
	if task.Status != plan.StatusFailed && task.Status != plan.StatusBlocked {
		return
	}
	prompt := &retryPrompt{TaskID: task.ID, TaskName: task.Name}
	if task.ErrorExcerpt != "" {
		prompt.HasError = true
		prompt.Excerpt = task.ErrorExcerpt
		prompt.Analysis = classify.Analyze(task.ErrorExcerpt)
	} else {
		prompt.Analysis = classify.Analysis{Category: classify.CategoryUnknown, Retryable: true, Hint: ""}
	}
	m.retry = prompt
}

// confirmRetry performs the write-back and closes the modal.
func (m *Model) confirmRetry() {
	prompt := m.retry
	m.retry = nil
	if prompt == nil || !prompt.Analysis.Retryable {
		return
	}

	err := plan.SetStatus(m.snap.Plan, prompt.TaskID, plan.StatusInProgress)
	switch {
	case err == nil:
		m.statusMsg = prompt.TaskID + " marked for retry"
		m.log.Info("task marked for retry", "task", prompt.TaskID)
		// The watcher will re-fire on our own write; reload immediately
		// so the UI does not lag a debounce interval behind.
		m.reloadPlan()
	case errors.Is(err, plan.ErrStale):
		m.statusMsg = "plan changed on disk; reloaded, try again"
		m.log.Warn("stale retry write", "task", prompt.TaskID)
		m.reloadPlan()
	case errors.Is(err, plan.ErrNotFound):
		m.statusMsg = "task no longer exists"
		m.reloadPlan()
	default:
		m.statusMsg = "write failed: " + err.Error()
		m.log.Error("retry write failed", "task", prompt.TaskID, "error", err)
	}
}
