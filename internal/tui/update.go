package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/claudeck/claudeck/internal/watch"
)

// Update is the single dispatch point for key input, watcher
// notifications and the tick. A plan re-parse and an event application
// never interleave: each message is handled to completion before the
// next render.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()

	case watchMsg:
		return m.handleWatch(watch.Event(msg))

	case watchClosedMsg:
		// Channel closed without a terminal error: the watcher was shut
		// down as part of quitting.
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleWatch(ev watch.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case watch.KindPlanChanged:
		m.reloadPlan()
	case watch.KindEventFileChanged:
		m.ingestFile(ev.Path)
	case watch.KindRescan:
		m.reloadPlan()
		m.rescanEvents()
	case watch.KindWatchError:
		m.log.Error("watcher terminal failure", "error", ev.Err)
		m.fatal = ErrWatcherFatal
		m.quitting = true
		return m, tea.Quit
	}
	m.refresh()
	return m, waitWatch(m.watchEvents)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The modal captures all keys while open.
	if m.retry != nil {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirmRetry()
			m.refresh()
		case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
			m.retry = nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.rememberSelection()

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		m.rememberSelection()

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.rememberSelection()

	case key.Matches(msg, m.keys.Bottom):
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		}
		m.rememberSelection()

	case key.Matches(msg, m.keys.Collapse):
		if id := m.selectedPhaseID(); id != "" {
			m.store.ToggleCollapse(id)
			m.refresh()
		}

	case key.Matches(msg, m.keys.ToggleView):
		if m.mode == viewTree {
			m.mode = viewGantt
		} else {
			m.mode = viewTree
		}

	case key.Matches(msg, m.keys.Retry):
		m.openRetry()
	}
	return m, nil
}
