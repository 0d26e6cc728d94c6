package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/claudeck/claudeck/internal/watch"
)

// tickMsg fires once per second to refresh uptime and relative times.
type tickMsg time.Time

// watchMsg wraps one debounced watcher notification.
type watchMsg watch.Event

// watchClosedMsg means the watcher channel drained and closed.
type watchClosedMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitWatch blocks on the watcher sink and delivers the next event.
func waitWatch(events <-chan watch.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return watchClosedMsg{}
		}
		return watchMsg(ev)
	}
}
