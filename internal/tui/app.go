package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/claudeck/claudeck/internal/config"
	"github.com/claudeck/claudeck/internal/hooks"
	"github.com/claudeck/claudeck/internal/logging"
	"github.com/claudeck/claudeck/internal/state"
	"github.com/claudeck/claudeck/internal/tail"
	"github.com/claudeck/claudeck/internal/watch"
)

// Run builds the dashboard and blocks until quit. It returns
// ErrWatcherFatal (wrapped) when the loop stopped because the watcher
// died; the CLI maps that to its own exit code. Terminal setup and
// restore, including the panic path, is handled by Bubble Tea's
// alt-screen lifecycle.
func Run(paths config.Paths, log *logging.Logger) error {
	if log == nil {
		log = logging.NopLogger()
	}

	store := state.NewStore(time.Now())
	store.SetSessionID(hooks.ReadSessionMarker(hooks.SessionMarkerPath))

	reader := tail.NewReader()

	watcher, err := watch.New(watch.Config{
		PlanPath:  paths.TasksPath,
		EventDirs: eventDirs(paths),
		Logger:    log.WithComponent("watch"),
	})
	if err != nil {
		return fmt.Errorf("set up watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrWatcherFatal, err)
	}
	defer watcher.Close()

	m := NewModel(store, reader, watcher.Events(), paths, log.WithComponent("tui"))

	// History up to launch: the current plan plus every existing event
	// file, read through the same cursors the live path uses.
	m.reloadPlan()
	m.rescanEvents()
	m.refresh()

	program := tea.NewProgram(m, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if fm, ok := final.(Model); ok && fm.Fatal() != nil {
		return fm.Fatal()
	}
	return nil
}

// eventDirs lists the directories watched and scanned for *.jsonl.
func eventDirs(paths config.Paths) []string {
	var dirs []string
	if paths.HooksDir != "" {
		dirs = append(dirs, paths.HooksDir)
	}
	if paths.EventsDir != "" {
		dirs = append(dirs, paths.EventsDir)
	}
	return dirs
}
